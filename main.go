/*
vkquad opens a window and draws a textured, spinning quad with Vulkan.
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/vkquad/engine"
	"github.com/spaghettifunk/vkquad/engine/core"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration file")
	flag.Parse()

	cfg, err := engine.LoadConfig(*configPath)
	if err != nil {
		core.LogFatal("could not load configuration: %s", err)
	}

	e, err := engine.New(cfg)
	if err != nil {
		core.LogFatal("could not create engine: %s", err)
	}

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		core.LogFatal("could not initialize engine: %s", err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// glfw must be torn down from the main thread, so the signal only stops the loop
	go func() {
		<-sigCh
		e.Stop()
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
	}
	if runErr != nil {
		core.LogFatal("engine stopped: %s", runErr)
	}
}
