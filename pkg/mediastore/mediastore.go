package mediastore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	coreconfig "github.com/janushq/janus/core/config"
	"github.com/janushq/janus/pkg/utils"
)

const previewWidth = 600

// DirStats summarizes disk usage of the generated media tree.
type DirStats struct {
	Files     int    `json:"files"`
	TotalSize int64  `json:"total_size"`
	HumanSize string `json:"human_size"`
}

// SaveGeneratedImage persists AI-generated media for a post and returns the
// stored file path. Decodable images wider than 600px also get a JPEG
// preview written next to the original.
func SaveGeneratedImage(postID string, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty media payload")
	}

	dir := utils.GetGeneratedMediaPath(postID)
	filename := uuid.New().String() + extensionForMIME(mimeType)
	fullPath := filepath.Join(dir, filename)

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}

	writePreview(fullPath, data)

	logrus.Infof("[MEDIA] stored generated image for post %s (%s)", postID, humanize.Bytes(uint64(len(data))))
	return fullPath, nil
}

// RemovePostMedia deletes all generated media stored for a post.
func RemovePostMedia(postID string) error {
	dir := filepath.Join(coreconfig.Global.Paths.Generated, postID)
	return os.RemoveAll(dir)
}

// GeneratedStats walks the generated media tree and reports its size.
func GeneratedStats() (DirStats, error) {
	stats := DirStats{}
	root := coreconfig.Global.Paths.Generated

	err := filepath.Walk(root, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			stats.Files++
			stats.TotalSize += info.Size()
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return DirStats{}, err
	}

	stats.HumanSize = humanize.Bytes(uint64(stats.TotalSize))
	return stats, nil
}

func extensionForMIME(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}

// writePreview renders a smaller JPEG next to the original. Failures are not
// fatal, the original file is what the pipeline stores on the variant.
func writePreview(originalPath string, data []byte) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		logrus.Debugf("[MEDIA] skipping preview, undecodable media at %s: %v", originalPath, err)
		return
	}
	if img.Bounds().Dx() <= previewWidth {
		return
	}

	resized := imaging.Resize(img, previewWidth, 0, imaging.Lanczos)
	ext := filepath.Ext(originalPath)
	previewPath := originalPath[:len(originalPath)-len(ext)] + "_preview.jpg"

	if err := imaging.Save(resized, previewPath, imaging.JPEGQuality(80)); err != nil {
		logrus.Warnf("[MEDIA] failed to write preview %s: %v", previewPath, err)
	}
}
