package websocket_test

import (
	"testing"
	"time"

	"github.com/janushq/janus/regenengine"
	"github.com/janushq/janus/ui/websocket"
)

// Task hooks fire from pool workers in every run mode, including ones that
// never start the hub (mcp). Updates must be dropped, not block the worker.
func TestBroadcastTaskUpdateNeverBlocksWithoutHub(t *testing.T) {
	t.Cleanup(func() {
		for {
			select {
			case <-websocket.Broadcast:
			default:
				return
			}
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 256; i++ {
			websocket.BroadcastTaskUpdate(regenengine.TaskRecord{
				TaskID: "task-under-test",
				PostID: "post-under-test",
				Status: regenengine.TaskRunning,
				Stage:  regenengine.StagePersist,
			})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task update hook blocked without a running hub")
	}
}
