package filler

// defaultSynonyms is the hand-maintained fallback dictionary covering the
// cross-language field labels seen across template generations. It is only
// consulted when neither the identity attempt nor the resolved mapping
// produced a fill for a key. Read-only after initialization.
var defaultSynonyms = map[string][]string{
	"nombres": {
		"Given Name(s)", "Registrant's Names", "nombres", "reg_names", "names",
	},
	"apellidos": {
		"Surname(s)", "Registrant's Surnames", "apellidos", "reg_surnames", "surnames",
	},
	"nuip_resolved": {
		"NUIP", "nuip", "Identification Number", "numero_unico",
	},
	"nuip": {
		"NUIP", "nuip",
	},
	"sexo": {
		"Sex", "sexo", "gender",
	},
	"grupo_sanguineo": {
		"Blood Group", "grupo_sanguineo", "rh",
	},
	"fecha_nacimiento": {
		"Date of Birth", "birth_date", "fecha_nacimiento",
	},
	"fecha_registro": {
		"Date of Registration", "registration_date", "fecha_registro",
	},
	"birth_place_combined": {
		"Place of Birth", "lugar_nacimiento", "birth_place",
	},
	"registry_location_combined": {
		"Registry Office", "oficina_registro", "lugar_registro",
	},
	"father_full_name": {
		"Father", "nombre_padre", "father_name",
	},
	"mother_full_name": {
		"Mother", "nombre_madre", "mother_name",
	},
	"notes_combined": {
		"Notes", "notas", "espacio_notas",
	},
	"serial_indicator": {
		"indicativo_serial", "serial",
	},
}
