package main

import (
	"fmt"
	"os"
	"path/filepath"

	"smartqa_backend/pkg/client"

	"github.com/spf13/viper"
)

func main() {
	v := viper.New()
	v.SetEnvPrefix("QACTL")
	v.AutomaticEnv()
	v.SetDefault("server", "http://localhost:8000")
	v.SetDefault("state_file", defaultStatePath())

	store, err := client.OpenFileStorage(v.GetString("state_file"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open state: %s\n", err)
		os.Exit(1)
	}

	cli := newCommandLine(client.New(v.GetString("server")), store, os.Stdout)
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "qactl", "state.json")
}
