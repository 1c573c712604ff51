package mapping

// keyPattern lists the search patterns for one canonical extracted key, plus
// tokens that disqualify a PDF field from matching it. Patterns are compared
// case-insensitively against the literal field names a template exposes.
type keyPattern struct {
	patterns []string
	exclude  []string
}

// roleExclusions keeps registrant-level patterns from hijacking the witness
// and declarant blocks that repeat the same labels on registry forms.
var roleExclusions = []string{"witness", "testigo", "declarant", "declarante"}

// canonicalPatterns is the fixed table driving mapping resolution. Loaded
// once, never mutated.
var canonicalPatterns = map[string]keyPattern{
	"nombres": {
		patterns: []string{"nombres", "names", "given_names"},
		exclude:  roleExclusions,
	},
	"apellidos": {
		patterns: []string{"apellidos", "surnames", "surname"},
		exclude:  roleExclusions,
	},
	"nuip_resolved": {
		patterns: []string{"nuip", "numero_unico"},
	},
	"fecha_nacimiento": {
		patterns: []string{"fecha_nacimiento", "birth_date", "date_of_birth", "dob"},
	},
	"fecha_registro": {
		patterns: []string{"fecha_registro", "registration_date"},
	},
	"birth_day": {
		patterns: []string{"birth_day", "dia_nacimiento"},
	},
	"birth_month": {
		patterns: []string{"birth_month", "mes_nacimiento"},
	},
	"birth_year": {
		patterns: []string{"birth_year", "ano_nacimiento"},
	},
	"reg_day": {
		patterns: []string{"reg_day", "dia_registro"},
	},
	"reg_month": {
		patterns: []string{"reg_month", "mes_registro"},
	},
	"reg_year": {
		patterns: []string{"reg_year", "ano_registro"},
	},
	"sexo": {
		patterns: []string{"sexo", "sex", "gender"},
	},
	"grupo_sanguineo": {
		patterns: []string{"grupo_sanguineo", "blood_group", "rh"},
	},
	"birth_place_combined": {
		patterns: []string{"place_of_birth", "birth_place", "lugar_nacimiento"},
	},
	"registry_location_combined": {
		patterns: []string{"registry_office", "registry_location", "oficina_registro", "lugar_registro"},
	},
	"father_full_name": {
		patterns: []string{"padre", "father"},
	},
	"mother_full_name": {
		patterns: []string{"madre", "mother"},
	},
	"nombres_padre": {
		patterns: []string{"nombres_padre", "father_names"},
	},
	"apellidos_padre": {
		patterns: []string{"apellidos_padre", "father_surnames"},
	},
	"nombres_madre": {
		patterns: []string{"nombres_madre", "mother_names"},
	},
	"apellidos_madre": {
		patterns: []string{"apellidos_madre", "mother_surnames"},
	},
	"notes_combined": {
		patterns: []string{"notes", "notas", "espacio_destinado"},
	},
	"serial_indicator": {
		patterns: []string{"indicativo_serial", "serial"},
	},
	"pais_nacimiento": {
		patterns: []string{"pais_nacimiento", "country_of_birth"},
	},
	"departamento_nacimiento": {
		patterns: []string{"departamento_nacimiento", "birth_department"},
	},
	"municipio_nacimiento": {
		patterns: []string{"municipio_nacimiento", "birth_municipality"},
	},
	"departamento_registro": {
		patterns: []string{"departamento_registro", "registry_department"},
	},
	"municipio_registro": {
		patterns: []string{"municipio_registro", "registry_municipality"},
	},
	"oficina_registro": {
		patterns: []string{"oficina_registro", "registry_office"},
	},
}
