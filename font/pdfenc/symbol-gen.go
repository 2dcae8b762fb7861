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

var symbolEncoding = [256]string{
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
	"universal",      // 34  0x22
	"numbersign",     // 35  0x23
	"existential",    // 36  0x24
	"percent",        // 37  0x25
	"ampersand",      // 38  0x26
	"suchthat",       // 39  0x27
	"parenleft",      // 40  0x28
	"parenright",     // 41  0x29
	"asteriskmath",   // 42  0x2a
	"plus",           // 43  0x2b
	"comma",          // 44  0x2c
	"minus",          // 45  0x2d
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
	"congruent",      // 64  0x40
	"Alpha",          // 65  0x41
	"Beta",           // 66  0x42
	"Chi",            // 67  0x43
	"Delta",          // 68  0x44
	"Epsilon",        // 69  0x45
	"Phi",            // 70  0x46
	"Gamma",          // 71  0x47
	"Eta",            // 72  0x48
	"Iota",           // 73  0x49
	"theta1",         // 74  0x4a
	"Kappa",          // 75  0x4b
	"Lambda",         // 76  0x4c
	"Mu",             // 77  0x4d
	"Nu",             // 78  0x4e
	"Omicron",        // 79  0x4f
	"Pi",             // 80  0x50
	"Theta",          // 81  0x51
	"Rho",            // 82  0x52
	"Sigma",          // 83  0x53
	"Tau",            // 84  0x54
	"Upsilon",        // 85  0x55
	"sigma1",         // 86  0x56
	"Omega",          // 87  0x57
	"Xi",             // 88  0x58
	"Psi",            // 89  0x59
	"Zeta",           // 90  0x5a
	"bracketleft",    // 91  0x5b
	"therefore",      // 92  0x5c
	"bracketright",   // 93  0x5d
	"perpendicular",  // 94  0x5e
	"underscore",     // 95  0x5f
	"radicalex",      // 96  0x60
	"alpha",          // 97  0x61
	"beta",           // 98  0x62
	"chi",            // 99  0x63
	"delta",          // 100 0x64
	"epsilon",        // 101 0x65
	"phi",            // 102 0x66
	"gamma",          // 103 0x67
	"eta",            // 104 0x68
	"iota",           // 105 0x69
	"phi1",           // 106 0x6a
	"kappa",          // 107 0x6b
	"lambda",         // 108 0x6c
	"mu",             // 109 0x6d
	"nu",             // 110 0x6e
	"omicron",        // 111 0x6f
	"pi",             // 112 0x70
	"theta",          // 113 0x71
	"rho",            // 114 0x72
	"sigma",          // 115 0x73
	"tau",            // 116 0x74
	"upsilon",        // 117 0x75
	"omega1",         // 118 0x76
	"omega",          // 119 0x77
	"xi",             // 120 0x78
	"psi",            // 121 0x79
	"zeta",           // 122 0x7a
	"braceleft",      // 123 0x7b
	"bar",            // 124 0x7c
	"braceright",     // 125 0x7d
	"similar",        // 126 0x7e
	".notdef",        // 127 0x7f
	".notdef",        // 128 0x80
	".notdef",        // 129 0x81
	".notdef",        // 130 0x82
	".notdef",        // 131 0x83
	".notdef",        // 132 0x84
	".notdef",        // 133 0x85
	".notdef",        // 134 0x86
	".notdef",        // 135 0x87
	".notdef",        // 136 0x88
	".notdef",        // 137 0x89
	".notdef",        // 138 0x8a
	".notdef",        // 139 0x8b
	".notdef",        // 140 0x8c
	".notdef",        // 141 0x8d
	".notdef",        // 142 0x8e
	".notdef",        // 143 0x8f
	".notdef",        // 144 0x90
	".notdef",        // 145 0x91
	".notdef",        // 146 0x92
	".notdef",        // 147 0x93
	".notdef",        // 148 0x94
	".notdef",        // 149 0x95
	".notdef",        // 150 0x96
	".notdef",        // 151 0x97
	".notdef",        // 152 0x98
	".notdef",        // 153 0x99
	".notdef",        // 154 0x9a
	".notdef",        // 155 0x9b
	".notdef",        // 156 0x9c
	".notdef",        // 157 0x9d
	".notdef",        // 158 0x9e
	".notdef",        // 159 0x9f
	"Euro",           // 160 0xa0
	"Upsilon1",       // 161 0xa1
	"minute",         // 162 0xa2
	"lessequal",      // 163 0xa3
	"fraction",       // 164 0xa4
	"infinity",       // 165 0xa5
	"florin",         // 166 0xa6
	"club",           // 167 0xa7
	"diamond",        // 168 0xa8
	"heart",          // 169 0xa9
	"spade",          // 170 0xaa
	"arrowboth",      // 171 0xab
	"arrowleft",      // 172 0xac
	"arrowup",        // 173 0xad
	"arrowright",     // 174 0xae
	"arrowdown",      // 175 0xaf
	"degree",         // 176 0xb0
	"plusminus",      // 177 0xb1
	"second",         // 178 0xb2
	"greaterequal",   // 179 0xb3
	"multiply",       // 180 0xb4
	"proportional",   // 181 0xb5
	"partialdiff",    // 182 0xb6
	"bullet",         // 183 0xb7
	"divide",         // 184 0xb8
	"notequal",       // 185 0xb9
	"equivalence",    // 186 0xba
	"approxequal",    // 187 0xbb
	"ellipsis",       // 188 0xbc
	"arrowvertex",    // 189 0xbd
	"arrowhorizex",   // 190 0xbe
	"carriagereturn", // 191 0xbf
	"aleph",          // 192 0xc0
	"Ifraktur",       // 193 0xc1
	"Rfraktur",       // 194 0xc2
	"weierstrass",    // 195 0xc3
	"circlemultiply", // 196 0xc4
	"circleplus",     // 197 0xc5
	"emptyset",       // 198 0xc6
	"intersection",   // 199 0xc7
	"union",          // 200 0xc8
	"propersuperset", // 201 0xc9
	"reflexsuperset", // 202 0xca
	"notsubset",      // 203 0xcb
	"propersubset",   // 204 0xcc
	"reflexsubset",   // 205 0xcd
	"element",        // 206 0xce
	"notelement",     // 207 0xcf
	"angle",          // 208 0xd0
	"gradient",       // 209 0xd1
	"registerserif",  // 210 0xd2
	"copyrightserif", // 211 0xd3
	"trademarkserif", // 212 0xd4
	"product",        // 213 0xd5
	"radical",        // 214 0xd6
	"dotmath",        // 215 0xd7
	"logicalnot",     // 216 0xd8
	"logicaland",     // 217 0xd9
	"logicalor",      // 218 0xda
	"arrowdblboth",   // 219 0xdb
	"arrowdblleft",   // 220 0xdc
	"arrowdblup",     // 221 0xdd
	"arrowdblright",  // 222 0xde
	"arrowdbldown",   // 223 0xdf
	"lozenge",        // 224 0xe0
	"angleleft",      // 225 0xe1
	"registersans",   // 226 0xe2
	"copyrightsans",  // 227 0xe3
	"trademarksans",  // 228 0xe4
	"summation",      // 229 0xe5
	"parenlefttp",    // 230 0xe6
	"parenleftex",    // 231 0xe7
	"parenleftbt",    // 232 0xe8
	"bracketlefttp",  // 233 0xe9
	"bracketleftex",  // 234 0xea
	"bracketleftbt",  // 235 0xeb
	"bracelefttp",    // 236 0xec
	"braceleftmid",   // 237 0xed
	"braceleftbt",    // 238 0xee
	"braceex",        // 239 0xef
	".notdef",        // 240 0xf0
	"angleright",     // 241 0xf1
	"integral",       // 242 0xf2
	"integraltp",     // 243 0xf3
	"integralex",     // 244 0xf4
	"integralbt",     // 245 0xf5
	"parenrighttp",   // 246 0xf6
	"parenrightex",   // 247 0xf7
	"parenrightbt",   // 248 0xf8
	"bracketrighttp", // 249 0xf9
	"bracketrightex", // 250 0xfa
	"bracketrightbt", // 251 0xfb
	"bracerighttp",   // 252 0xfc
	"bracerightmid",  // 253 0xfd
	"bracerightbt",   // 254 0xfe
	".notdef",        // 255 0xff
}

var zapfDingbatsEncoding = [256]string{
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
	"a1",             // 33  0x21
	"a2",             // 34  0x22
	"a3",             // 35  0x23
	"a4",             // 36  0x24
	"a5",             // 37  0x25
	"a6",             // 38  0x26
	"a7",             // 39  0x27
	"a8",             // 40  0x28
	"a9",             // 41  0x29
	"a10",            // 42  0x2a
	"a11",            // 43  0x2b
	"a12",            // 44  0x2c
	"a13",            // 45  0x2d
	"a14",            // 46  0x2e
	"a15",            // 47  0x2f
	"a16",            // 48  0x30
	"a17",            // 49  0x31
	"a18",            // 50  0x32
	"a19",            // 51  0x33
	"a20",            // 52  0x34
	"a21",            // 53  0x35
	"a22",            // 54  0x36
	"a23",            // 55  0x37
	"a24",            // 56  0x38
	"a25",            // 57  0x39
	"a26",            // 58  0x3a
	"a27",            // 59  0x3b
	"a28",            // 60  0x3c
	"a29",            // 61  0x3d
	"a30",            // 62  0x3e
	"a31",            // 63  0x3f
	"a32",            // 64  0x40
	"a33",            // 65  0x41
	"a34",            // 66  0x42
	"a35",            // 67  0x43
	"a36",            // 68  0x44
	"a37",            // 69  0x45
	"a38",            // 70  0x46
	"a39",            // 71  0x47
	"a40",            // 72  0x48
	"a41",            // 73  0x49
	"a42",            // 74  0x4a
	"a43",            // 75  0x4b
	"a44",            // 76  0x4c
	"a45",            // 77  0x4d
	"a46",            // 78  0x4e
	"a47",            // 79  0x4f
	"a48",            // 80  0x50
	"a49",            // 81  0x51
	"a50",            // 82  0x52
	"a51",            // 83  0x53
	"a52",            // 84  0x54
	"a53",            // 85  0x55
	"a54",            // 86  0x56
	"a55",            // 87  0x57
	"a56",            // 88  0x58
	"a57",            // 89  0x59
	"a58",            // 90  0x5a
	"a59",            // 91  0x5b
	"a60",            // 92  0x5c
	"a61",            // 93  0x5d
	"a62",            // 94  0x5e
	"a63",            // 95  0x5f
	"a64",            // 96  0x60
	"a65",            // 97  0x61
	"a66",            // 98  0x62
	"a67",            // 99  0x63
	"a68",            // 100 0x64
	"a69",            // 101 0x65
	"a70",            // 102 0x66
	"a71",            // 103 0x67
	"a72",            // 104 0x68
	"a73",            // 105 0x69
	"a74",            // 106 0x6a
	"a75",            // 107 0x6b
	"a76",            // 108 0x6c
	"a77",            // 109 0x6d
	"a78",            // 110 0x6e
	"a79",            // 111 0x6f
	"a80",            // 112 0x70
	"a81",            // 113 0x71
	"a82",            // 114 0x72
	"a83",            // 115 0x73
	"a84",            // 116 0x74
	"a85",            // 117 0x75
	"a86",            // 118 0x76
	"a87",            // 119 0x77
	"a88",            // 120 0x78
	"a89",            // 121 0x79
	"a90",            // 122 0x7a
	"a91",            // 123 0x7b
	"a92",            // 124 0x7c
	"a93",            // 125 0x7d
	"a94",            // 126 0x7e
	".notdef",        // 127 0x7f
	".notdef",        // 128 0x80
	".notdef",        // 129 0x81
	".notdef",        // 130 0x82
	".notdef",        // 131 0x83
	".notdef",        // 132 0x84
	".notdef",        // 133 0x85
	".notdef",        // 134 0x86
	".notdef",        // 135 0x87
	".notdef",        // 136 0x88
	".notdef",        // 137 0x89
	".notdef",        // 138 0x8a
	".notdef",        // 139 0x8b
	".notdef",        // 140 0x8c
	".notdef",        // 141 0x8d
	".notdef",        // 142 0x8e
	".notdef",        // 143 0x8f
	".notdef",        // 144 0x90
	".notdef",        // 145 0x91
	".notdef",        // 146 0x92
	".notdef",        // 147 0x93
	".notdef",        // 148 0x94
	".notdef",        // 149 0x95
	".notdef",        // 150 0x96
	".notdef",        // 151 0x97
	".notdef",        // 152 0x98
	".notdef",        // 153 0x99
	".notdef",        // 154 0x9a
	".notdef",        // 155 0x9b
	".notdef",        // 156 0x9c
	".notdef",        // 157 0x9d
	".notdef",        // 158 0x9e
	".notdef",        // 159 0x9f
	".notdef",        // 160 0xa0
	"a101",           // 161 0xa1
	"a102",           // 162 0xa2
	"a103",           // 163 0xa3
	"a104",           // 164 0xa4
	"a106",           // 165 0xa5
	"a107",           // 166 0xa6
	"a108",           // 167 0xa7
	"a112",           // 168 0xa8
	"a111",           // 169 0xa9
	"a110",           // 170 0xaa
	"a109",           // 171 0xab
	"a120",           // 172 0xac
	"a121",           // 173 0xad
	"a122",           // 174 0xae
	"a123",           // 175 0xaf
	"a124",           // 176 0xb0
	"a125",           // 177 0xb1
	"a126",           // 178 0xb2
	"a127",           // 179 0xb3
	"a128",           // 180 0xb4
	"a129",           // 181 0xb5
	"a130",           // 182 0xb6
	"a131",           // 183 0xb7
	"a132",           // 184 0xb8
	"a133",           // 185 0xb9
	"a134",           // 186 0xba
	"a135",           // 187 0xbb
	"a136",           // 188 0xbc
	"a137",           // 189 0xbd
	"a138",           // 190 0xbe
	"a139",           // 191 0xbf
	"a140",           // 192 0xc0
	"a141",           // 193 0xc1
	"a142",           // 194 0xc2
	"a143",           // 195 0xc3
	"a144",           // 196 0xc4
	"a145",           // 197 0xc5
	"a146",           // 198 0xc6
	"a147",           // 199 0xc7
	"a148",           // 200 0xc8
	"a149",           // 201 0xc9
	"a150",           // 202 0xca
	"a151",           // 203 0xcb
	"a152",           // 204 0xcc
	"a153",           // 205 0xcd
	"a154",           // 206 0xce
	"a155",           // 207 0xcf
	"a156",           // 208 0xd0
	"a157",           // 209 0xd1
	"a158",           // 210 0xd2
	"a159",           // 211 0xd3
	"a160",           // 212 0xd4
	"a161",           // 213 0xd5
	"a163",           // 214 0xd6
	"a164",           // 215 0xd7
	"a196",           // 216 0xd8
	"a165",           // 217 0xd9
	"a192",           // 218 0xda
	"a166",           // 219 0xdb
	"a167",           // 220 0xdc
	"a168",           // 221 0xdd
	"a169",           // 222 0xde
	"a170",           // 223 0xdf
	"a171",           // 224 0xe0
	"a172",           // 225 0xe1
	"a173",           // 226 0xe2
	"a162",           // 227 0xe3
	"a174",           // 228 0xe4
	"a175",           // 229 0xe5
	"a176",           // 230 0xe6
	"a177",           // 231 0xe7
	"a178",           // 232 0xe8
	"a179",           // 233 0xe9
	"a193",           // 234 0xea
	"a180",           // 235 0xeb
	"a199",           // 236 0xec
	"a181",           // 237 0xed
	"a200",           // 238 0xee
	"a182",           // 239 0xef
	".notdef",        // 240 0xf0
	"a201",           // 241 0xf1
	"a183",           // 242 0xf2
	"a184",           // 243 0xf3
	"a197",           // 244 0xf4
	"a185",           // 245 0xf5
	"a194",           // 246 0xf6
	"a198",           // 247 0xf7
	"a186",           // 248 0xf8
	"a195",           // 249 0xf9
	"a187",           // 250 0xfa
	"a188",           // 251 0xfb
	"a189",           // 252 0xfc
	"a190",           // 253 0xfd
	"a191",           // 254 0xfe
	".notdef",        // 255 0xff
}
