// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package report renders the summary of a batch run.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/wneessen/nominal-track/internal/batch"
	"github.com/wneessen/nominal-track/internal/config"
)

// Summary is the data a report template is rendered with.
type Summary struct {
	Started time.Time
	Source  string
	Sink    string
	Stats   batch.Stats
}

type Report struct {
	tpl *template.Template
}

func New(conf *config.Config) (*Report, error) {
	tpl, err := template.New("report").Funcs(templateFuncMap()).Parse(conf.Report.Template)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}
	return &Report{tpl: tpl}, nil
}

// Write renders the summary to w.
func (r *Report) Write(w io.Writer, summary Summary) error {
	if err := r.tpl.Execute(w, summary); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"timeFormat":  timeFormat,
		"floatFormat": floatFormat,
		"duration":    duration,
		"pad":         pad,
		"lc":          strings.ToLower,
		"uc":          strings.ToUpper,
	}
}

func timeFormat(val time.Time, fmt string) string {
	return val.Format(fmt)
}

func floatFormat(val float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, val)
}

func duration(val time.Duration) string {
	return val.Round(time.Millisecond).String()
}

// pad fills val with spaces to the given display width, keeping at least one space
// between a label and its value.
func pad(val string, width int) string {
	if runewidth.StringWidth(val) >= width {
		return val + " "
	}
	return runewidth.FillRight(val, width)
}
