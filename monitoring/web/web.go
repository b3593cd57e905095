// Package web holds the page that the monitor serves.
package web

import (
	"embed"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

//go:embed static/*
var staticAssets embed.FS

// devModeEnv makes the monitor serve the page from the source tree so that it
// can be edited without rebuilding.
const devModeEnv = "RINGDMA_MONITOR_DEV"

// GetAssets returns the static assets
func GetAssets() http.FileSystem {
	if isDevelopmentMode() {
		return http.Dir(sourceAssetDir())
	}

	sub, err := fs.Sub(staticAssets, "static")
	if err != nil {
		log.Panic(err)
	}

	return http.FS(sub)
}

func sourceAssetDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		log.Panic("cannot locate the monitor web assets")
	}

	dir := filepath.Join(filepath.Dir(file), "static")
	log.Printf("monitor development mode, serving assets from %s", dir)

	return dir
}

func isDevelopmentMode() bool {
	dev, err := strconv.ParseBool(os.Getenv(devModeEnv))
	return err == nil && dev
}
