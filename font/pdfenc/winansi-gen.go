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

// Code generated from the tables in Appendix D of PDF 32000-1:2008.

package pdfenc

var winAnsiEncoding = [256]string{
	".notdef",        // 0   0x00
	".notdef",        // 1   0x01
	".notdef",        // 2   0x02
	".notdef",        // 3   0x03
	".notdef",        // 4   0x04
	".notdef",        // 5   0x05
	".notdef",        // 6   0x06
	".notdef",        // 7   0x07
	".notdef",        // 8   0x08
	".notdef",        // 9   0x09
	".notdef",        // 10  0x0a
	".notdef",        // 11  0x0b
	".notdef",        // 12  0x0c
	".notdef",        // 13  0x0d
	".notdef",        // 14  0x0e
	".notdef",        // 15  0x0f
	".notdef",        // 16  0x10
	".notdef",        // 17  0x11
	".notdef",        // 18  0x12
	".notdef",        // 19  0x13
	".notdef",        // 20  0x14
	".notdef",        // 21  0x15
	".notdef",        // 22  0x16
	".notdef",        // 23  0x17
	".notdef",        // 24  0x18
	".notdef",        // 25  0x19
	".notdef",        // 26  0x1a
	".notdef",        // 27  0x1b
	".notdef",        // 28  0x1c
	".notdef",        // 29  0x1d
	".notdef",        // 30  0x1e
	".notdef",        // 31  0x1f
	"space",          // 32  0x20
	"exclam",         // 33  0x21
	"quotedbl",       // 34  0x22
	"numbersign",     // 35  0x23
	"dollar",         // 36  0x24
	"percent",        // 37  0x25
	"ampersand",      // 38  0x26
	"quotesingle",    // 39  0x27
	"parenleft",      // 40  0x28
	"parenright",     // 41  0x29
	"asterisk",       // 42  0x2a
	"plus",           // 43  0x2b
	"comma",          // 44  0x2c
	"hyphen",         // 45  0x2d
	"period",         // 46  0x2e
	"slash",          // 47  0x2f
	"zero",           // 48  0x30
	"one",            // 49  0x31
	"two",            // 50  0x32
	"three",          // 51  0x33
	"four",           // 52  0x34
	"five",           // 53  0x35
	"six",            // 54  0x36
	"seven",          // 55  0x37
	"eight",          // 56  0x38
	"nine",           // 57  0x39
	"colon",          // 58  0x3a
	"semicolon",      // 59  0x3b
	"less",           // 60  0x3c
	"equal",          // 61  0x3d
	"greater",        // 62  0x3e
	"question",       // 63  0x3f
	"at",             // 64  0x40
	"A",              // 65  0x41
	"B",              // 66  0x42
	"C",              // 67  0x43
	"D",              // 68  0x44
	"E",              // 69  0x45
	"F",              // 70  0x46
	"G",              // 71  0x47
	"H",              // 72  0x48
	"I",              // 73  0x49
	"J",              // 74  0x4a
	"K",              // 75  0x4b
	"L",              // 76  0x4c
	"M",              // 77  0x4d
	"N",              // 78  0x4e
	"O",              // 79  0x4f
	"P",              // 80  0x50
	"Q",              // 81  0x51
	"R",              // 82  0x52
	"S",              // 83  0x53
	"T",              // 84  0x54
	"U",              // 85  0x55
	"V",              // 86  0x56
	"W",              // 87  0x57
	"X",              // 88  0x58
	"Y",              // 89  0x59
	"Z",              // 90  0x5a
	"bracketleft",    // 91  0x5b
	"backslash",      // 92  0x5c
	"bracketright",   // 93  0x5d
	"asciicircum",    // 94  0x5e
	"underscore",     // 95  0x5f
	"grave",          // 96  0x60
	"a",              // 97  0x61
	"b",              // 98  0x62
	"c",              // 99  0x63
	"d",              // 100 0x64
	"e",              // 101 0x65
	"f",              // 102 0x66
	"g",              // 103 0x67
	"h",              // 104 0x68
	"i",              // 105 0x69
	"j",              // 106 0x6a
	"k",              // 107 0x6b
	"l",              // 108 0x6c
	"m",              // 109 0x6d
	"n",              // 110 0x6e
	"o",              // 111 0x6f
	"p",              // 112 0x70
	"q",              // 113 0x71
	"r",              // 114 0x72
	"s",              // 115 0x73
	"t",              // 116 0x74
	"u",              // 117 0x75
	"v",              // 118 0x76
	"w",              // 119 0x77
	"x",              // 120 0x78
	"y",              // 121 0x79
	"z",              // 122 0x7a
	"braceleft",      // 123 0x7b
	"bar",            // 124 0x7c
	"braceright",     // 125 0x7d
	"asciitilde",     // 126 0x7e
	".notdef",        // 127 0x7f
	"Euro",           // 128 0x80
	".notdef",        // 129 0x81
	"quotesinglbase", // 130 0x82
	"florin",         // 131 0x83
	"quotedblbase",   // 132 0x84
	"ellipsis",       // 133 0x85
	"dagger",         // 134 0x86
	"daggerdbl",      // 135 0x87
	"circumflex",     // 136 0x88
	"perthousand",    // 137 0x89
	"Scaron",         // 138 0x8a
	"guilsinglleft",  // 139 0x8b
	"OE",             // 140 0x8c
	".notdef",        // 141 0x8d
	"Zcaron",         // 142 0x8e
	".notdef",        // 143 0x8f
	".notdef",        // 144 0x90
	"quoteleft",      // 145 0x91
	"quoteright",     // 146 0x92
	"quotedblleft",   // 147 0x93
	"quotedblright",  // 148 0x94
	"bullet",         // 149 0x95
	"endash",         // 150 0x96
	"emdash",         // 151 0x97
	"tilde",          // 152 0x98
	"trademark",      // 153 0x99
	"scaron",         // 154 0x9a
	"guilsinglright", // 155 0x9b
	"oe",             // 156 0x9c
	".notdef",        // 157 0x9d
	"zcaron",         // 158 0x9e
	"Ydieresis",      // 159 0x9f
	"space",          // 160 0xa0
	"exclamdown",     // 161 0xa1
	"cent",           // 162 0xa2
	"sterling",       // 163 0xa3
	"currency",       // 164 0xa4
	"yen",            // 165 0xa5
	"brokenbar",      // 166 0xa6
	"section",        // 167 0xa7
	"dieresis",       // 168 0xa8
	"copyright",      // 169 0xa9
	"ordfeminine",    // 170 0xaa
	"guillemotleft",  // 171 0xab
	"logicalnot",     // 172 0xac
	"hyphen",         // 173 0xad
	"registered",     // 174 0xae
	"macron",         // 175 0xaf
	"degree",         // 176 0xb0
	"plusminus",      // 177 0xb1
	"twosuperior",    // 178 0xb2
	"threesuperior",  // 179 0xb3
	"acute",          // 180 0xb4
	"mu",             // 181 0xb5
	"paragraph",      // 182 0xb6
	"periodcentered", // 183 0xb7
	"cedilla",        // 184 0xb8
	"onesuperior",    // 185 0xb9
	"ordmasculine",   // 186 0xba
	"guillemotright", // 187 0xbb
	"onequarter",     // 188 0xbc
	"onehalf",        // 189 0xbd
	"threequarters",  // 190 0xbe
	"questiondown",   // 191 0xbf
	"Agrave",         // 192 0xc0
	"Aacute",         // 193 0xc1
	"Acircumflex",    // 194 0xc2
	"Atilde",         // 195 0xc3
	"Adieresis",      // 196 0xc4
	"Aring",          // 197 0xc5
	"AE",             // 198 0xc6
	"Ccedilla",       // 199 0xc7
	"Egrave",         // 200 0xc8
	"Eacute",         // 201 0xc9
	"Ecircumflex",    // 202 0xca
	"Edieresis",      // 203 0xcb
	"Igrave",         // 204 0xcc
	"Iacute",         // 205 0xcd
	"Icircumflex",    // 206 0xce
	"Idieresis",      // 207 0xcf
	"Eth",            // 208 0xd0
	"Ntilde",         // 209 0xd1
	"Ograve",         // 210 0xd2
	"Oacute",         // 211 0xd3
	"Ocircumflex",    // 212 0xd4
	"Otilde",         // 213 0xd5
	"Odieresis",      // 214 0xd6
	"multiply",       // 215 0xd7
	"Oslash",         // 216 0xd8
	"Ugrave",         // 217 0xd9
	"Uacute",         // 218 0xda
	"Ucircumflex",    // 219 0xdb
	"Udieresis",      // 220 0xdc
	"Yacute",         // 221 0xdd
	"Thorn",          // 222 0xde
	"germandbls",     // 223 0xdf
	"agrave",         // 224 0xe0
	"aacute",         // 225 0xe1
	"acircumflex",    // 226 0xe2
	"atilde",         // 227 0xe3
	"adieresis",      // 228 0xe4
	"aring",          // 229 0xe5
	"ae",             // 230 0xe6
	"ccedilla",       // 231 0xe7
	"egrave",         // 232 0xe8
	"eacute",         // 233 0xe9
	"ecircumflex",    // 234 0xea
	"edieresis",      // 235 0xeb
	"igrave",         // 236 0xec
	"iacute",         // 237 0xed
	"icircumflex",    // 238 0xee
	"idieresis",      // 239 0xef
	"eth",            // 240 0xf0
	"ntilde",         // 241 0xf1
	"ograve",         // 242 0xf2
	"oacute",         // 243 0xf3
	"ocircumflex",    // 244 0xf4
	"otilde",         // 245 0xf5
	"odieresis",      // 246 0xf6
	"divide",         // 247 0xf7
	"oslash",         // 248 0xf8
	"ugrave",         // 249 0xf9
	"uacute",         // 250 0xfa
	"ucircumflex",    // 251 0xfb
	"udieresis",      // 252 0xfc
	"yacute",         // 253 0xfd
	"thorn",          // 254 0xfe
	"ydieresis",      // 255 0xff
}
