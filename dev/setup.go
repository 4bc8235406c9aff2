package main

import (
	"context"
	"fmt"
	"ihidro-assist/internal/components/devenv"
	"ihidro-assist/internal/config"
	"ihidro-assist/internal/history"
	"os"

	_ "embed"
)

//go:embed config.example.json5
var exampleConfig []byte

func CreateConfig() error {
	path, err := devenv.ResolvePath(config.DefaultPath)
	if err != nil {
		return err
	}

	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("config already created at", path)
		return nil
	}

	fmt.Println("writing example config to", path)
	fmt.Println("fill in your portal credentials there, or in config.local.json5 next to it")
	return os.WriteFile(path, exampleConfig, 0600)
}

func CreateHistoryDB() error {
	cfg := history.Config{File: "<dev_state>/history.db"}
	path, err := devenv.ResolvePath(cfg.File)
	if err != nil {
		return err
	}

	fmt.Println("creating history database at", path)
	db, err := cfg.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return history.Migrate(context.Background(), db)
}
