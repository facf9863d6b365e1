package utils

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
)

const serverIDPrefix = "janus-"

// GetPersistentServerID returns a stable identifier for this node, used to
// key heartbeats and websocket fanout. Resolution order: explicit override,
// the id file under the storage dir, a sanitized hostname, a random id.
// Whatever gets derived is written back so restarts keep the same identity.
func GetPersistentServerID(override, storagePath string) string {
	if override != "" {
		return override
	}

	idFile := filepath.Join(storagePath, ".server_id")
	if data, err := os.ReadFile(idFile); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id
		}
	}

	id := serverIDPrefix + hostnameSuffix()
	if id == serverIDPrefix {
		buf := make([]byte, 4)
		rand.Read(buf)
		id = serverIDPrefix + hex.EncodeToString(buf)
	}

	_ = os.MkdirAll(storagePath, 0755)
	_ = os.WriteFile(idFile, []byte(id), 0644)
	return id
}

// hostnameSuffix reduces the hostname to characters safe for store keys.
// Empty when the hostname is unusable.
func hostnameSuffix() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" || hostname == "localhost" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return -1
	}, hostname)
}
