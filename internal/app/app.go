// Package app wires configuration, the immich plugin and the optional
// preview window into a runnable photo frame.
package app

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"immich-album-frame/internal/app/display"
	"immich-album-frame/internal/plugin"
	"immich-album-frame/internal/render"
	"immich-album-frame/internal/secrets"
	"immich-album-frame/internal/settings"
)

type frame struct {
	conf   Config
	plugin *plugin.Plugin
	log    *slog.Logger
}

func newFrame(conf Config, log *slog.Logger) *frame {
	pluginOpts := []plugin.Option{
		plugin.WithLogger(log),
		plugin.WithDownloadTimeout(conf.Plugin.DownloadTimeout),
		plugin.WithMetadataTimeout(conf.Plugin.MetadataTimeout),
		plugin.WithMaxAssetSize(uint64(conf.Plugin.MaxAssetSize)),
	}
	if seed := conf.App.Seed; seed != 0 {
		pluginOpts = append(pluginOpts, plugin.WithRand(rand.New(rand.NewPCG(seed, seed))))
	}
	p := plugin.New(
		secrets.NewStore(conf.Secrets, log),
		settings.NewFileStore(conf.Plugin.SettingsPath),
		conf.Device,
		pluginOpts...,
	)
	return &frame{conf: conf, plugin: p, log: log}
}

// render generates a frame and writes it to the configured output as PNG.
func (fr *frame) render(ctx context.Context) (image.Image, error) {
	img, err := fr.plugin.GenerateImage(ctx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := render.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}
	if err := os.WriteFile(fr.conf.App.Output, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("writing frame: %w", err)
	}
	fr.log.Info("wrote frame",
		"path", fr.conf.App.Output,
		"size", humanize.Bytes(uint64(buf.Len())),
	)
	return img, nil
}

// Run loads the configuration, renders a frame and, if configured, shows it
// in a preview window until the window is closed or the process is
// interrupted.
func Run() error {
	conf, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, closer := newLogger(conf.App)
	defer closer.Close()
	log = log.With("run", uuid.NewString())
	log.Debug("loaded config", "config", conf)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fr := newFrame(*conf, log)
	img, err := fr.render(ctx)
	if err != nil {
		return err
	}
	if !conf.App.Preview {
		return nil
	}

	disp := display.New(log)
	disp.Show(img)
	if interval := conf.App.RefreshInterval; interval > 0 {
		go fr.refreshWorker(ctx, disp, interval)
	}
	closed := make(chan struct{})
	defer close(closed)
	go quitOnDone(ctx, disp, closed)
	disp.ShowAndRun()
	if ctx.Err() != nil {
		log.Info("shutting down", "cause", context.Cause(ctx))
	}
	return nil
}
