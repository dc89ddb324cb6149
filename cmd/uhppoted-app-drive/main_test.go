package main

import (
	"testing"

	"github.com/uhppoted/uhppote-core/uhppote"
	lib "github.com/uhppoted/uhppoted-lib/command"
)

func TestVersionCommand(t *testing.T) {
	for _, c := range cli {
		if v, ok := c.(*lib.Version); ok {
			if v.Application != "uhppoted-app-drive" {
				t.Errorf("Incorrect application - expected:%v, got:%v", "uhppoted-app-drive", v.Application)
			}

			if v.Version != uhppote.VERSION {
				t.Errorf("Incorrect version - expected:%v, got:%v", uhppote.VERSION, v.Version)
			}

			return
		}
	}

	t.Errorf("Missing 'version' command")
}
