package bigdir

import logging "github.com/ipfs/go-log/v2"

// log is the package logger. Set GOLOG_LOG_LEVEL=bigdir=debug (or call
// logging.SetLogLevel("bigdir", "debug")) to see per-scan read counts.
var log = logging.Logger("bigdir")
