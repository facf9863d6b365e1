package utils

import (
	"fmt"
	"os"
	"path/filepath"

	coreconfig "github.com/janushq/janus/core/config"
)

// GetCampaignStoragePath returns the path for a specific campaign and subfolder.
func GetCampaignStoragePath(campaignID, subfolder string) string {
	path := filepath.Join(coreconfig.Global.Paths.Statics, "campaigns", campaignID, subfolder)
	_ = os.MkdirAll(path, 0755)
	return path
}

// GetGeneratedMediaPath returns the directory where generated media for a post is stored.
func GetGeneratedMediaPath(postID string) string {
	path := filepath.Join(coreconfig.Global.Paths.Generated, postID)
	_ = os.MkdirAll(path, 0755)
	return path
}

// EnsureStorageDirectories creates the base directory layout on startup.
func EnsureStorageDirectories() error {
	dirs := []string{
		coreconfig.Global.Paths.Storages,
		coreconfig.Global.Paths.Statics,
		coreconfig.Global.Paths.Generated,
	}

	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", d, err)
		}
	}
	return nil
}
