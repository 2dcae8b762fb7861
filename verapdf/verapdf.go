// pdftopdfa - convert PDF documents to PDF/A for long-term archiving
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package verapdf validates PDF/A conformance with the external
// veraPDF tool.  See https://verapdf.org/ for installation.
package verapdf

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

// Error reports a failure of the veraPDF integration itself, as
// opposed to a non-compliant document.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("verapdf: %s: %v", e.Msg, e.Err)
	}
	return "verapdf: " + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// RuleResult is one failed validation rule.
type RuleResult struct {
	// Clause is the specification clause, for example "6.1.11".
	Clause string

	// TestNumber distinguishes multiple rules per clause.
	TestNumber string

	// Description explains the requirement.
	Description string

	// Failures is the number of failed checks for this rule.
	Failures int
}

// Report is the outcome of one validation run.
type Report struct {
	// Compliant reports whether the file conforms to the flavour.
	Compliant bool

	// Flavour is the validated flavour, for example "2b".
	Flavour string

	// PassedRules and FailedRules count the profile rules.
	PassedRules int
	FailedRules int

	// Rules lists the failed rules.
	Rules []RuleResult
}

// Validator checks a PDF file against a PDF/A flavour.
type Validator interface {
	Validate(ctx context.Context, path string, flavour string) (*Report, error)
}

// validFlavours are the flavour arguments veraPDF accepts.
var validFlavours = map[string]bool{
	"1a": true, "1b": true,
	"2a": true, "2b": true, "2u": true,
	"3a": true, "3b": true, "3u": true,
	"4": true, "4e": true, "4f": true,
}

// NormalizeFlavour converts the various spellings of a PDF/A flavour
// ("PDF/A-2B", "pdfa_2_b", "2b") to the form veraPDF expects.
func NormalizeFlavour(flavour string) (string, error) {
	s := strings.ToUpper(flavour)
	for _, prefix := range []string{"PDF/A-", "PDFA-", "PDFA_", "PDF/A", "PDFA"} {
		if strings.HasPrefix(s, prefix) {
			s = s[len(prefix):]
			break
		}
	}
	s = strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(s))
	if !validFlavours[s] {
		return "", &Error{Msg: fmt.Sprintf("invalid PDF/A flavour %q", flavour)}
	}
	return s, nil
}

// CLI runs the veraPDF command line tool and parses its XML report.
type CLI struct {
	// Command is the veraPDF executable.  An empty value uses the
	// VERAPDF_PATH environment variable, then "verapdf" from PATH.
	Command string

	Log *slog.Logger
}

func (c *CLI) command() string {
	if c.Command != "" {
		return c.Command
	}
	if env := os.Getenv("VERAPDF_PATH"); env != "" {
		return env
	}
	return "verapdf"
}

// Available reports whether the veraPDF executable can be found.
func (c *CLI) Available() bool {
	_, err := exec.LookPath(c.command())
	return err == nil
}

// Version returns the installed veraPDF version string, or "".
func (c *CLI) Version(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, c.command(), "--version").Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return line
}

// Validate runs veraPDF on the given file.  Exit codes 0 and 1 both
// carry a valid report (compliant and non-compliant); anything else is
// an *Error.
func (c *CLI) Validate(ctx context.Context, path string, flavour string) (*Report, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &Error{Msg: "file not found: " + path, Err: err}
	}

	args := []string{"--format", "xml"}
	if flavour != "" {
		normalized, err := NormalizeFlavour(flavour)
		if err != nil {
			return nil, err
		}
		args = append(args, "--flavour", normalized)
	}
	args = append(args, path)

	if c.Log != nil {
		c.Log.Debug("running veraPDF", "cmd", c.command(), "args", args)
	}

	cmd := exec.CommandContext(ctx, c.command(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		// exit code 1 means non-compliant, still a valid report
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = "running veraPDF"
			}
			return nil, &Error{Msg: msg, Err: err}
		}
	}

	if stdout.Len() == 0 {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "veraPDF returned no output"
		}
		return nil, &Error{Msg: msg}
	}

	report, err := ParseReport(stdout.Bytes())
	if err != nil {
		return nil, &Error{Msg: "parsing veraPDF report", Err: err}
	}
	return report, nil
}

// xmlReport mirrors the parts of the veraPDF XML report we read.
type xmlReport struct {
	ValidationReports []xmlValidationReport `xml:"jobs>job>validationReport"`
	TaskExceptions    []string              `xml:"jobs>job>taskResult>exceptionMessage"`
}

type xmlValidationReport struct {
	IsCompliant bool       `xml:"isCompliant,attr"`
	ProfileName string     `xml:"profileName,attr"`
	Details     xmlDetails `xml:"details"`
}

type xmlDetails struct {
	PassedRules int       `xml:"passedRules,attr"`
	FailedRules int       `xml:"failedRules,attr"`
	Rules       []xmlRule `xml:"rule"`
}

type xmlRule struct {
	Status       string `xml:"status,attr"`
	Clause       string `xml:"clause,attr"`
	TestNumber   string `xml:"testNumber,attr"`
	FailedChecks int    `xml:"failedChecks,attr"`
	Description  string `xml:"description"`
}

var profileFlavourRe = regexp.MustCompile(`(?i)PDF/A-(\d)([ABUEF])?`)

// ParseReport extracts the validation outcome from a veraPDF XML
// report.
func ParseReport(data []byte) (*Report, error) {
	var raw xmlReport
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw.ValidationReports) == 0 {
		if len(raw.TaskExceptions) > 0 {
			return nil, fmt.Errorf("veraPDF: %s", raw.TaskExceptions[0])
		}
		return nil, fmt.Errorf("no validation report in veraPDF output")
	}

	vr := raw.ValidationReports[0]
	report := &Report{
		Compliant:   vr.IsCompliant,
		PassedRules: vr.Details.PassedRules,
		FailedRules: vr.Details.FailedRules,
	}
	if m := profileFlavourRe.FindStringSubmatch(vr.ProfileName); m != nil {
		report.Flavour = m[1] + strings.ToLower(m[2])
	}
	for _, rule := range vr.Details.Rules {
		if rule.Status != "failed" {
			continue
		}
		report.Rules = append(report.Rules, RuleResult{
			Clause:      rule.Clause,
			TestNumber:  rule.TestNumber,
			Description: strings.TrimSpace(rule.Description),
			Failures:    rule.FailedChecks,
		})
	}
	return report, nil
}
