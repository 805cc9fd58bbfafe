package polaram

import "github.com/sirupsen/logrus"

var (
	Debug    = false // set to true for verbose debug output
	Progress = true  // set to false to suppress [PROGRESS] lines while sampling
	// Log is the package logger; SetupLogger reconfigures it.
	Log = logrus.New()
)
