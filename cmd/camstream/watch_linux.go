// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"os"

	fsnotify "gopkg.in/fsnotify.v1"
)

// watchExecutable returns errExecutableChanged once the running binary is
// replaced, or nil when done is closed.
func watchExecutable(done <-chan bool) error {
	fileName, err := os.Executable()
	if err != nil {
		return err
	}
	return watchFile(fileName, done)
}

func watchFile(fileName string, done <-chan bool) error {
	fi, err := os.Stat(fileName)
	if err != nil {
		return err
	}
	mod0 := fi.ModTime()
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err = watcher.Add(fileName); err != nil {
		return err
	}
	for {
		select {
		case <-done:
			return nil
		case err = <-watcher.Errors:
			return err
		case <-watcher.Events:
			fi, err = os.Stat(fileName)
			if errors.Is(err, os.ErrNotExist) {
				// Replaced by a rename; the new file shows up shortly.
				return errExecutableChanged
			}
			if err != nil {
				return err
			}
			if !fi.ModTime().Equal(mod0) {
				return errExecutableChanged
			}
		}
	}
}
