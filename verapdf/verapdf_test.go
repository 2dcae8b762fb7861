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

package verapdf

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeFlavour(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2b", "2b", true},
		{"PDF/A-2B", "2b", true},
		{"PDFA_3_U", "3u", true},
		{"pdfa-2u", "2u", true},
		{"4", "4", true},
		{"1c", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, err := NormalizeFlavour(c.in)
		if (err == nil) != c.ok {
			t.Errorf("NormalizeFlavour(%q): err = %v, want ok = %v", c.in, err, c.ok)
			continue
		}
		if got != c.want {
			t.Errorf("NormalizeFlavour(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

const compliantXML = `<?xml version="1.0" encoding="utf-8"?>
<report>
  <jobs>
    <job>
      <validationReport jobEndStatus="normal" profileName="PDF/A-2B validation profile" statement="PDF file is compliant with Validation Profile requirements." isCompliant="true">
        <details passedRules="142" failedRules="0" passedChecks="1045" failedChecks="0"/>
      </validationReport>
    </job>
  </jobs>
</report>`

const failingXML = `<?xml version="1.0" encoding="utf-8"?>
<report>
  <jobs>
    <job>
      <validationReport profileName="PDF/A-2B validation profile" isCompliant="false">
        <details passedRules="140" failedRules="2" passedChecks="1040" failedChecks="5">
          <rule specification="ISO 19005-2:2011" clause="6.1.11" testNumber="1" status="failed" passedChecks="0" failedChecks="1">
            <description>A metadata stream shall not be filtered</description>
            <object>PDMetadata</object>
          </rule>
          <rule specification="ISO 19005-2:2011" clause="6.2.11.4" testNumber="1" status="failed" passedChecks="2" failedChecks="4">
            <description>Fonts shall be embedded</description>
            <object>PDFont</object>
          </rule>
          <rule specification="ISO 19005-2:2011" clause="6.1.2" testNumber="1" status="passed" passedChecks="3" failedChecks="0">
            <description>File header check</description>
          </rule>
        </details>
      </validationReport>
    </job>
  </jobs>
</report>`

func TestParseReportCompliant(t *testing.T) {
	report, err := ParseReport([]byte(compliantXML))
	if err != nil {
		t.Fatal(err)
	}
	want := &Report{
		Compliant:   true,
		Flavour:     "2b",
		PassedRules: 142,
	}
	if d := cmp.Diff(want, report); d != "" {
		t.Errorf("report mismatch (-want +got):\n%s", d)
	}
}

func TestParseReportFailing(t *testing.T) {
	report, err := ParseReport([]byte(failingXML))
	if err != nil {
		t.Fatal(err)
	}
	if report.Compliant {
		t.Error("failing report parsed as compliant")
	}
	if report.FailedRules != 2 {
		t.Errorf("FailedRules = %d, want 2", report.FailedRules)
	}
	want := []RuleResult{
		{Clause: "6.1.11", TestNumber: "1", Description: "A metadata stream shall not be filtered", Failures: 1},
		{Clause: "6.2.11.4", TestNumber: "1", Description: "Fonts shall be embedded", Failures: 4},
	}
	if d := cmp.Diff(want, report.Rules); d != "" {
		t.Errorf("rules mismatch (-want +got):\n%s", d)
	}
}

func TestParseReportNoReport(t *testing.T) {
	if _, err := ParseReport([]byte(`<report><jobs/></report>`)); err == nil {
		t.Error("missing validation report accepted")
	}
	if _, err := ParseReport([]byte(`not xml`)); err == nil {
		t.Error("malformed XML accepted")
	}
}

func TestCLIAvailable(t *testing.T) {
	cli := &CLI{Command: "/nonexistent/verapdf-binary"}
	if cli.Available() {
		t.Error("nonexistent command reported as available")
	}
}
