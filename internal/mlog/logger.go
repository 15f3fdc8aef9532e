package mlog

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

var (
	l   = initLogger()
	nop = zerolog.Nop()
)

func initLogger() zerolog.Logger {
	var out io.Writer
	if ok, _ := strconv.ParseBool(os.Getenv("MOSMDNS_JSONLOGGER")); ok {
		out = os.Stderr
	} else {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

func L() *zerolog.Logger {
	return &l
}

func SetLvl(lvl zerolog.Level) {
	zerolog.SetGlobalLevel(lvl)
}

func Lvl() zerolog.Level {
	return zerolog.GlobalLevel()
}

func Nop() *zerolog.Logger {
	return &nop
}
