// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package report implements the CLI-facing serialscan.Sink
// implementations: a colorized terminal reporter and a line-delimited
// JSON reporter, both backed by structured zap logging of the scan's
// lifecycle.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"code.hybscloud.com/serialscan"
)

// Console is a serialscan.Sink that prints colorized, human-oriented
// diagnostics to w as they happen, and logs the same events through
// log (warnings at warn level, the verdict at info level, the rest at
// debug level) for anyone piping stderr into a log aggregator.
type Console struct {
	w       io.Writer
	log     *zap.Logger
	noColor bool
	quiet   bool
	warnC   *color.Color
	infoC   *color.Color
	safeC   *color.Color
	unsafeC *color.Color
}

// NewConsole builds a Console reporter. noColor disables ANSI color
// regardless of terminal detection; quiet suppresses Info/Descriptor/
// Graph output, printing only the final verdict.
func NewConsole(w io.Writer, log *zap.Logger, noColor, quiet bool) *Console {
	return &Console{
		w: w, log: log, noColor: noColor, quiet: quiet,
		warnC:   color.New(color.FgYellow),
		infoC:   color.New(color.FgCyan),
		safeC:   color.New(color.FgGreen, color.Bold),
		unsafeC: color.New(color.FgRed, color.Bold),
	}
}

func (c *Console) colorize(cl *color.Color, format string, args ...interface{}) string {
	if c.noColor {
		return fmt.Sprintf(format, args...)
	}
	return cl.Sprintf(format, args...)
}

func (c *Console) Info(message string) {
	c.log.Debug("scan info", zap.String("message", message))
	if c.quiet {
		return
	}
	fmt.Fprintln(c.w, c.colorize(c.infoC, "info: %s", message))
}

func (c *Console) Warn(message string) {
	c.log.Warn("scan warning", zap.String("message", message))
	if c.quiet {
		return
	}
	fmt.Fprintln(c.w, c.colorize(c.warnC, "warn: %s", message))
}

func (c *Console) Descriptor(name string, serialVersionUID int64, numFields int) {
	c.log.Debug("class descriptor",
		zap.String("name", name), zap.Int64("serialVersionUID", serialVersionUID), zap.Int("numFields", numFields))
	if c.quiet {
		return
	}
	fmt.Fprintln(c.w, c.colorize(c.infoC, "descriptor: %s (uid=%d, fields=%d)", name, serialVersionUID, numFields))
}

func (c *Console) Graph(startHandle int64, refCount int64) {
	c.log.Debug("reference graph traversal", zap.Int64("startHandle", startHandle), zap.Int64("refCount", refCount))
	if c.quiet {
		return
	}
	fmt.Fprintln(c.w, c.colorize(c.infoC, "graph: handle %d reached %s references", startHandle, humanize.Comma(refCount)))
}

func (c *Console) Verdict(v serialscan.Verdict) {
	c.log.Info("scan verdict", zap.Bool("safe", v.Safe), zap.String("reason", v.Reason.String()))
	if v.Safe {
		fmt.Fprintln(c.w, c.colorize(c.safeC, "SAFE"))
		return
	}
	fmt.Fprintln(c.w, c.colorize(c.unsafeC, "UNSAFE: %s", v.Reason))
}

// jsonEvent is one line of JSON output emitted by JSONLines.
type jsonEvent struct {
	Type             string `json:"type"`
	Message          string `json:"message,omitempty"`
	Name             string `json:"name,omitempty"`
	SerialVersionUID int64  `json:"serialVersionUID,omitempty"`
	NumFields        int    `json:"numFields,omitempty"`
	StartHandle      int64  `json:"startHandle,omitempty"`
	RefCount         int64  `json:"refCount,omitempty"`
	Safe             *bool  `json:"safe,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

// JSONLines is a serialscan.Sink that emits one JSON object per line,
// for machine consumption (--json).
type JSONLines struct {
	enc *json.Encoder
	log *zap.Logger
}

// NewJSONLines builds a JSONLines reporter writing to w.
func NewJSONLines(w io.Writer, log *zap.Logger) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w), log: log}
}

func (j *JSONLines) emit(e jsonEvent) {
	_ = j.enc.Encode(e)
}

func (j *JSONLines) Info(message string) {
	j.log.Debug("scan info", zap.String("message", message))
	j.emit(jsonEvent{Type: "info", Message: message})
}

func (j *JSONLines) Warn(message string) {
	j.log.Warn("scan warning", zap.String("message", message))
	j.emit(jsonEvent{Type: "warn", Message: message})
}

func (j *JSONLines) Descriptor(name string, serialVersionUID int64, numFields int) {
	j.log.Debug("class descriptor", zap.String("name", name))
	j.emit(jsonEvent{Type: "descriptor", Name: name, SerialVersionUID: serialVersionUID, NumFields: numFields})
}

func (j *JSONLines) Graph(startHandle int64, refCount int64) {
	j.log.Debug("reference graph traversal", zap.Int64("startHandle", startHandle))
	j.emit(jsonEvent{Type: "graph", StartHandle: startHandle, RefCount: refCount})
}

func (j *JSONLines) Verdict(v serialscan.Verdict) {
	j.log.Info("scan verdict", zap.Bool("safe", v.Safe))
	safe := v.Safe
	j.emit(jsonEvent{Type: "verdict", Safe: &safe, Reason: v.Reason.String()})
}
