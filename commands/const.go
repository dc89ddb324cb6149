package commands

import (
	"time"
)

const (
	FOLDER_ENV = "DRIVE_FOLDER_ID"

	DEFAULT_CREDENTIALS = "credentials.json"
	DEFAULT_NAME        = "data.xlsx"
	DEFAULT_FILE        = "data.xlsx"
	DEFAULT_BIND        = "0.0.0.0:8000"
	DEFAULT_TIMEOUT     = 60 * time.Second
)
