package config

import (
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Watch reloads the full configuration whenever the global or project file
// changes and hands valid results to onChange. Invalid edits are logged and
// the previous configuration stays in effect. Files that do not exist when
// Watch is called are not watched.
func Watch(log *slog.Logger, onChange func(Config)) {
	var paths []string
	if p, err := GlobalPath(); err == nil {
		paths = append(paths, p)
	}
	paths = append(paths, ProjectFile)

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			log.Warn("not watching config", "path", path, "error", err)
			continue
		}
		v.OnConfigChange(func(e fsnotify.Event) {
			cfg, err := Load()
			if err != nil {
				log.Warn("ignoring config change", "path", e.Name, "error", err)
				return
			}
			log.Info("config reloaded", "path", e.Name, "op", e.Op.String())
			onChange(cfg)
		})
		v.WatchConfig()
		log.Debug("watching config", "path", path)
	}
}
