// Package logging builds the service's zap logger.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/parisxmas/OxiDB/OxiForms/internal/gelf"
)

const serviceName = "oxiforms"

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.MessageKey = "msg"
	cfg.LevelKey = "level"
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	cfg.EncodeTime = zapcore.EpochTimeEncoder
	return cfg
}

// New returns a JSON logger on stderr. When gelfAddr is set, entries are
// also shipped to that GELF UDP input; a GELF failure is reported and the
// logger falls back to stderr only.
func New(level, gelfAddr string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	enc := zapcore.NewJSONEncoder(encoderConfig())
	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lvl)}

	var gelfErr error
	if gelfAddr != "" {
		w, err := gelf.New(gelfAddr, serviceName)
		if err != nil {
			gelfErr = err
		} else {
			cores = append(cores, zapcore.NewCore(enc.Clone(), w, lvl))
		}
	}

	log := zap.New(zapcore.NewTee(cores...), zap.AddCaller()).With(zap.String("service", serviceName))
	if gelfErr != nil {
		log.Warn("GELF init failed", zap.String("addr", gelfAddr), zap.Error(gelfErr))
	} else if gelfAddr != "" {
		log.Info("GELF logging enabled", zap.String("addr", gelfAddr))
	}
	return log, nil
}
