package polaram

import (
	"sync"
)

func DebugLog(format string, args ...interface{}) {
	if !Debug {
		return
	}
	Log.Debugf(format, args...)
}

var once sync.Once

func DebugLogOnce(format string, args ...interface{}) {
	if !Debug {
		return
	}
	once.Do(func() {
		Log.Debugf(format, args...)
	})
}
