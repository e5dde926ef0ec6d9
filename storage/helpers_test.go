package storage

import "github.com/JamilPr1/Haraj/config"

func configForDir(dir string) config.Config {
	cfg := config.Default()
	cfg.DataDir = dir
	cfg.StoreBackend = "file"
	return cfg
}
