package app

import (
	"context"
	"image"
	"time"
)

// quitter is something that can be asked to shut down.
type quitter interface {
	Quit()
}

// quitOnDone calls q.Quit once ctx is done, unless done is closed first.
func quitOnDone(ctx context.Context, q quitter, done <-chan struct{}) {
	select {
	case <-ctx.Done():
		q.Quit()
	case <-done:
	}
}

// frameSink receives rendered frames.
type frameSink interface {
	Show(image.Image)
}

// refreshWorker renders a frame every interval and hands it to the sink
// until ctx is done. Failed renders are logged and the previous frame stays
// up.
func (fr *frame) refreshWorker(ctx context.Context, sink frameSink, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		img, err := fr.render(ctx)
		if err != nil {
			fr.log.Error("failed to refresh frame", "error", err)
			continue
		}
		sink.Show(img)
	}
}
