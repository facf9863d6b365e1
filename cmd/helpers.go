package cmd

import (
	infraValkey "github.com/janushq/janus/infrastructure/valkey"

	"github.com/janushq/janus/infrastructure/monitoring"
	"github.com/janushq/janus/regenengine"
	regenRepository "github.com/janushq/janus/regenengine/repository"
	"github.com/sirupsen/logrus"
)

// flagChanged reports whether the user set a persistent flag explicitly.
func flagChanged(name string) bool {
	return rootCmd.PersistentFlags().Changed(name)
}

// initStatusStore picks where regeneration task records live: shared Valkey
// hash when available, otherwise a per-process map.
func initStatusStore(vk *infraValkey.Client) regenengine.StatusStore {
	if vk != nil {
		logrus.Info("[APP] regeneration task status on valkey")
		return regenRepository.NewValkeyStatusStore(vk)
	}
	logrus.Info("[APP] regeneration task status in memory")
	return regenRepository.NewMemoryStatusStore()
}

// initMonitoringStore mirrors the same choice for server heartbeats and
// worker activity.
func initMonitoringStore(vk *infraValkey.Client) monitoring.Store {
	if vk != nil {
		return monitoring.NewValkeyStore(vk)
	}
	return monitoring.NewMemoryStore()
}
