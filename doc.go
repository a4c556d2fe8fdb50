/*
Package rigging boots http endpoints behind a shared middleware pipeline.

# Overview

An Environment owns the process level lifecycle: it resolves settings for a
named environment (development, test, production, ...), builds a logger,
composes mounted apps into one handler and runs it on a network server. Every
step is wrapped in hooks so apps and plugins can extend it without touching
the environment itself.

# Lifecycle

  - configure: resolve settings for the environment name
  - setup: build the logger, build mounted apps, initialize plugins
  - fork: Forking and Forked bracket a process fork

# Usage

	package main

	import (
		"net/http"

		"github.com/slimloans/rigging"
	)

	func main() {
		api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})

		rigging.Mount(rigging.Handler(api), "/api")

		if _, err := rigging.Setup(""); err != nil {
			panic(err)
		}

		if err := rigging.Run(rigging.RunOptions{}); err != nil {
			panic(err)
		}
	}
*/
package rigging
