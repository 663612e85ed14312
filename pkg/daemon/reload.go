package daemon

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
)

// watchConfig re-applies the cluster overrides whenever the configuration
// file is written. The directory is watched rather than the file, so
// editors that replace the file are picked up too.
func (d *Daemon) watchConfig() error {
	if d.configPath == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WithStack(err)
	}
	if err := watcher.Add(filepath.Dir(d.configPath)); err != nil {
		watcher.Close()
		return errors.Wrap(err, "failed to watch config")
	}
	d.watcher = watcher

	target := filepath.Clean(d.configPath)
	go func() {
		defer close(d.watchDone)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := d.reloadConfig(); err != nil {
					level.Error(d.logger).Log("msg", "Failed to reload config", "path", d.configPath, "err", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				level.Warn(d.logger).Log("msg", "Config watcher error", "err", err)
			}
		}
	}()
	return nil
}

func (d *Daemon) reloadConfig() error {
	config, err := ReadConfigFile(d.configPath)
	if err != nil {
		return errors.WithStack(err)
	}
	if config.Address != d.config.Address || config.DatabasePath() != d.config.DatabasePath() {
		level.Warn(d.logger).Log("msg", "Address and database changes need a restart")
	}

	changed, err := applyClusterOverrides(d.cluster, config.Cluster)
	if err != nil {
		return errors.WithStack(err)
	}

	d.mutex.Lock()
	d.config.Cluster = config.Cluster
	d.mutex.Unlock()

	level.Info(d.logger).Log("msg", "Reloaded config", "changed", len(changed))
	if len(changed) > 0 {
		d.ConfigChanged()
	}
	return nil
}

func (d *Daemon) stopWatchingConfig() error {
	if d.watcher == nil {
		return nil
	}
	err := d.watcher.Close()
	<-d.watchDone
	d.watcher = nil
	return errors.WithStack(err)
}
