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

package color

import (
	"io"
	"log/slog"
	"testing"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pageDoc builds a document with one page with the given content and
// resource dictionary.
func pageDoc(content string, res pdf.Dict) *pdf.Document {
	doc := pdf.NewDocument(pdf.V1_7)

	contRef := doc.Alloc()
	doc.Put(contRef, pdf.NewFlateStream([]byte(content), nil))

	pagesRef := doc.Alloc()
	pageRef := doc.Alloc()
	page := pdf.Dict{
		"Type":     pdf.Name("Page"),
		"Parent":   pagesRef,
		"MediaBox": pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(612), pdf.Integer(792)},
		"Contents": contRef,
	}
	if res != nil {
		page["Resources"] = res
	}
	doc.Put(pageRef, page)
	doc.Put(pagesRef, pdf.Dict{
		"Type":  pdf.Name("Pages"),
		"Kids":  pdf.Array{pageRef},
		"Count": pdf.Integer(1),
	})
	rootRef := doc.Alloc()
	doc.Put(rootRef, pdf.Dict{
		"Type":  pdf.Name("Catalog"),
		"Pages": pagesRef,
	})
	doc.Trailer["Root"] = rootRef
	return doc
}

func imageStream(doc *pdf.Document, colorSpace pdf.Object) pdf.Reference {
	ref := doc.Alloc()
	stm := pdf.NewFlateStream([]byte{0}, pdf.Dict{
		"Type":             pdf.Name("XObject"),
		"Subtype":          pdf.Name("Image"),
		"Width":            pdf.Integer(1),
		"Height":           pdf.Integer(1),
		"BitsPerComponent": pdf.Integer(8),
		"ColorSpace":       colorSpace,
	})
	doc.Put(ref, stm)
	return ref
}

func TestDetectOperators(t *testing.T) {
	doc := pageDoc("0.5 g 0 0 100 100 re f 1 0 0 rg 0 0 50 50 re f", nil)
	a, err := Detect(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !a.DeviceGray || !a.DeviceRGB {
		t.Errorf("got %+v, want DeviceGray and DeviceRGB", a)
	}
	if a.DeviceCMYK {
		t.Errorf("DeviceCMYK detected in gray/rgb content")
	}
	if a.Dominant() != "DeviceRGB" {
		t.Errorf("got dominant %s, want DeviceRGB", a.Dominant())
	}
}

func TestDetectImage(t *testing.T) {
	doc := pageDoc("/Im1 Do", nil)
	img := imageStream(doc, pdf.Name("DeviceCMYK"))
	page := doc.Pages()[0]
	page.Dict["Resources"] = pdf.Dict{
		"XObject": pdf.Dict{"Im1": img},
	}

	a, err := Detect(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !a.DeviceCMYK {
		t.Error("DeviceCMYK not detected in image color space")
	}
	if a.Dominant() != "DeviceCMYK" {
		t.Errorf("got dominant %s, want DeviceCMYK", a.Dominant())
	}
}

func TestDetectSeparationAlternate(t *testing.T) {
	sep := pdf.Array{
		pdf.Name("Separation"), pdf.Name("Spot1"), pdf.Name("DeviceCMYK"),
		pdf.Dict{"FunctionType": pdf.Integer(2), "Domain": pdf.Array{pdf.Integer(0), pdf.Integer(1)}},
	}
	doc := pageDoc("/CS0 cs 1 scn", pdf.Dict{
		"ColorSpace": pdf.Dict{"CS0": sep},
	})

	a, err := Detect(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Separation {
		t.Error("Separation space not detected")
	}
	if !a.DeviceCMYK {
		t.Error("alternate space of Separation not counted")
	}
}

func TestDetectEmpty(t *testing.T) {
	doc := pageDoc("0 0 100 100 re S", nil)
	a, err := Detect(doc)
	if err != nil {
		t.Fatal(err)
	}
	if a.Dominant() != "DeviceRGB" {
		t.Errorf("got default dominant %s, want DeviceRGB", a.Dominant())
	}
}

func TestBuiltinProfiles(t *testing.T) {
	for _, space := range []pdf.Name{"DeviceGray", "DeviceRGB", "DeviceCMYK"} {
		profile := BuiltinProfile(space)
		if profile == nil {
			t.Fatalf("no builtin profile for %s", space)
		}
		if err := ValidateProfile(profile); err != nil {
			t.Errorf("%s: %v", space, err)
		}
		n, err := Components(profile)
		if err != nil {
			t.Fatalf("%s: %v", space, err)
		}
		want := map[pdf.Name]int{
			"DeviceGray": 1, "DeviceRGB": 3, "DeviceCMYK": 4,
		}[space]
		if n != want {
			t.Errorf("%s: got %d components, want %d", space, n, want)
		}
	}
}

func TestValidateProfileRejects(t *testing.T) {
	if err := ValidateProfile([]byte("too short")); err == nil {
		t.Error("short data accepted as ICC profile")
	}

	profile := make([]byte, len(BuiltinProfile("DeviceGray")))
	copy(profile, BuiltinProfile("DeviceGray"))
	copy(profile[36:40], "nope")
	if err := ValidateProfile(profile); err == nil {
		t.Error("data without acsp signature accepted")
	}
}

func TestEnsureOutputIntent(t *testing.T) {
	doc := pageDoc("1 1 1 0 k 0 0 100 100 re f", nil)
	a, err := Detect(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := EnsureOutputIntent(doc, a, discardLog()); err != nil {
		t.Fatal(err)
	}

	intents := doc.GetArray(doc.Catalog()["OutputIntents"])
	if len(intents) != 1 {
		t.Fatalf("got %d output intents, want 1", len(intents))
	}
	intent := doc.GetDict(intents[0])
	if doc.GetName(intent["S"]) != "GTS_PDFA1" {
		t.Errorf("got subtype %s, want GTS_PDFA1", doc.GetName(intent["S"]))
	}
	stm := doc.GetStream(intent["DestOutputProfile"])
	if stm == nil {
		t.Fatal("missing DestOutputProfile")
	}
	profile, err := doc.DecodeStream(stm)
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateProfile(profile); err != nil {
		t.Error(err)
	}
	if n, _ := doc.GetInteger(stm.Dict["N"]); n != 4 {
		t.Errorf("got N=%d, want 4 for CMYK intent", n)
	}

	// a second run must not add another intent
	if err := EnsureOutputIntent(doc, a, discardLog()); err != nil {
		t.Fatal(err)
	}
	if n := len(doc.GetArray(doc.Catalog()["OutputIntents"])); n != 1 {
		t.Errorf("second run changed intent count to %d", n)
	}
}

func TestEnsureOutputIntentKeepsExisting(t *testing.T) {
	doc := pageDoc("0 g", nil)

	profileRef := doc.Alloc()
	doc.Put(profileRef, pdf.NewFlateStream(BuiltinProfile("DeviceRGB"), pdf.Dict{
		"N": pdf.Integer(3),
	}))
	intentRef := doc.Alloc()
	doc.Put(intentRef, pdf.Dict{
		"Type":                      pdf.Name("OutputIntent"),
		"S":                         pdf.Name("GTS_PDFA1"),
		"OutputConditionIdentifier": pdf.String("sRGB"),
		"DestOutputProfile":         profileRef,
	})
	doc.Catalog()["OutputIntents"] = pdf.Array{intentRef}

	a, err := Detect(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := EnsureOutputIntent(doc, a, discardLog()); err != nil {
		t.Fatal(err)
	}
	intents := doc.GetArray(doc.Catalog()["OutputIntents"])
	if len(intents) != 1 || intents[0] != pdf.Object(intentRef) {
		t.Error("existing PDF/A intent not kept")
	}
}

func TestFixDeviceSpacesDefaults(t *testing.T) {
	// CMYK dominant, gray content needs a DefaultGray entry
	doc := pageDoc("0.5 g 0 0 10 10 re f 1 0 0 0 k 0 0 10 10 re f", nil)
	a, err := Detect(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := FixDeviceSpaces(doc, a); err != nil {
		t.Fatal(err)
	}

	page := doc.Pages()[0]
	res := doc.GetDict(page.Dict["Resources"])
	csDict := doc.GetDict(res["ColorSpace"])
	def := doc.GetArray(csDict["DefaultGray"])
	if len(def) != 2 || doc.GetName(def[0]) != "ICCBased" {
		t.Fatalf("got DefaultGray %v, want ICCBased array", csDict["DefaultGray"])
	}
	if _, ok := csDict["DefaultCMYK"]; ok {
		t.Error("dominant space got a default color space")
	}
}

func TestFixDeviceSpacesImage(t *testing.T) {
	doc := pageDoc("/Im1 Do 1 0 0 rg", nil)
	img := imageStream(doc, pdf.Name("DeviceGray"))
	page := doc.Pages()[0]
	page.Dict["Resources"] = pdf.Dict{
		"XObject": pdf.Dict{"Im1": img},
	}

	a, err := Detect(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := FixDeviceSpaces(doc, a); err != nil {
		t.Fatal(err)
	}

	stm := doc.GetStream(img)
	cs := doc.GetArray(stm.Dict["ColorSpace"])
	if len(cs) != 2 || doc.GetName(cs[0]) != "ICCBased" {
		t.Errorf("image color space not replaced: %v", stm.Dict["ColorSpace"])
	}
}

func TestFixDeviceSpacesGroup(t *testing.T) {
	doc := pageDoc("0 0 10 10 re f", nil)
	page := doc.Pages()[0]
	page.Dict["Group"] = pdf.Dict{
		"Type": pdf.Name("Group"),
		"S":    pdf.Name("Transparency"),
		"CS":   pdf.Name("DeviceRGB"),
	}

	a, err := Detect(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := FixDeviceSpaces(doc, a); err != nil {
		t.Fatal(err)
	}

	group := doc.GetDict(page.Dict["Group"])
	cs := doc.GetArray(group["CS"])
	if len(cs) != 2 || doc.GetName(cs[0]) != "ICCBased" {
		t.Errorf("group color space not replaced: %v", group["CS"])
	}
}

func TestReplaceCalibrated(t *testing.T) {
	calRGB := pdf.Array{pdf.Name("CalRGB"), pdf.Dict{
		"WhitePoint": pdf.Array{pdf.Real(0.9505), pdf.Real(1), pdf.Real(1.089)},
	}}
	doc := pageDoc("/CS0 cs 1 1 1 scn", pdf.Dict{
		"ColorSpace": pdf.Dict{"CS0": calRGB},
	})

	n, err := ReplaceCalibrated(doc)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("got %d replacements, want 1", n)
	}

	page := doc.Pages()[0]
	res := doc.GetDict(page.Dict["Resources"])
	cs := doc.GetArray(doc.GetDict(res["ColorSpace"])["CS0"])
	if len(cs) != 2 || doc.GetName(cs[0]) != "ICCBased" {
		t.Errorf("CalRGB not replaced: %v", cs)
	}
	stm := doc.GetStream(cs[1])
	if stm == nil {
		t.Fatal("ICC profile stream missing")
	}
	if n, _ := doc.GetInteger(stm.Dict["N"]); n != 3 {
		t.Errorf("got N=%d, want 3", n)
	}
}

func TestRepairIndexed(t *testing.T) {
	// 3 components, hival 1: lookup must be 6 bytes
	indexed := pdf.Array{
		pdf.Name("Indexed"), pdf.Name("DeviceRGB"), pdf.Integer(1),
		pdf.String([]byte{255, 0, 0}),
	}
	doc := pageDoc("/CS0 cs 0 scn", pdf.Dict{
		"ColorSpace": pdf.Dict{"CS0": indexed},
	})

	n, err := RepairIndexed(doc, discardLog())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("got %d repairs, want 1", n)
	}
	lookup, _ := doc.Resolve(indexed[3]).(pdf.String)
	if len(lookup) != 6 {
		t.Errorf("got lookup length %d, want 6", len(lookup))
	}
	if lookup[0] != 255 || lookup[5] != 0 {
		t.Errorf("lookup not padded in place: %v", []byte(lookup))
	}
}

func TestCompleteColorants(t *testing.T) {
	tint := pdf.Dict{"FunctionType": pdf.Integer(2), "Domain": pdf.Array{pdf.Integer(0), pdf.Integer(1)}}
	devN := pdf.Array{
		pdf.Name("DeviceN"),
		pdf.Array{pdf.Name("Spot1"), pdf.Name("Spot2")},
		pdf.Name("DeviceCMYK"),
		tint,
	}
	doc := pageDoc("/CS0 cs 1 1 scn", pdf.Dict{
		"ColorSpace": pdf.Dict{"CS0": devN},
	})

	n, err := CompleteColorants(doc)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("got %d changes, want 1", n)
	}

	page := doc.Pages()[0]
	res := doc.GetDict(page.Dict["Resources"])
	cs := doc.GetArray(doc.GetDict(res["ColorSpace"])["CS0"])
	if len(cs) != 5 {
		t.Fatalf("attributes dictionary not added, len %d", len(cs))
	}
	colorants := doc.GetDict(doc.GetDict(cs[4])["Colorants"])
	for _, name := range []pdf.Name{"Spot1", "Spot2"} {
		sep := doc.GetArray(colorants[name])
		if len(sep) != 4 || doc.GetName(sep[0]) != "Separation" {
			t.Errorf("colorant %s: got %v, want Separation space", name, colorants[name])
		}
	}
}

func TestUnifySeparations(t *testing.T) {
	tintA := pdf.Dict{"FunctionType": pdf.Integer(2), "Domain": pdf.Array{pdf.Integer(0), pdf.Integer(1)}}
	tintB := pdf.Dict{"FunctionType": pdf.Integer(2), "Domain": pdf.Array{pdf.Integer(0), pdf.Integer(1)}, "N": pdf.Integer(2)}
	sepA := pdf.Array{pdf.Name("Separation"), pdf.Name("Spot1"), pdf.Name("DeviceCMYK"), tintA}
	sepB := pdf.Array{pdf.Name("Separation"), pdf.Name("Spot1"), pdf.Name("DeviceRGB"), tintB}
	doc := pageDoc("/CS0 cs 1 scn /CS1 cs 1 scn", pdf.Dict{
		"ColorSpace": pdf.Dict{"CS0": sepA, "CS1": sepB},
	})

	n, err := UnifySeparations(doc, discardLog())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("got %d changes, want 1", n)
	}

	page := doc.Pages()[0]
	res := doc.GetDict(page.Dict["Resources"])
	csDict := doc.GetDict(res["ColorSpace"])
	a := pdf.Format(doc.Resolve(csDict["CS0"]))
	b := pdf.Format(doc.Resolve(csDict["CS1"]))
	if a != b {
		t.Errorf("separations still differ:\n%s\n%s", a, b)
	}
}
