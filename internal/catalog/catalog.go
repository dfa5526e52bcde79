package catalog

// FieldType selects the cleaning and validation rules applied to a field value.
type FieldType string

const (
	TypeName    FieldType = "name"
	TypeDate    FieldType = "date"
	TypePhone   FieldType = "phone"
	TypeEmail   FieldType = "email"
	TypeID      FieldType = "id_number"
	TypeAddress FieldType = "address"
	TypeGender  FieldType = "gender"
	TypeGeneric FieldType = "generic"
)

// Field describes one canonical field: its key, value type and the label
// variations OCR engines commonly produce for it.
type Field struct {
	Key     string
	Type    FieldType
	Aliases []string
}

// Catalog is the read-only set of canonical fields. It is built once at
// startup and shared across requests without synchronization.
type Catalog struct {
	fields []Field
	byKey  map[string]int
}

// New builds a catalog from the given fields, preserving declaration order.
func New(fields []Field) *Catalog {
	c := &Catalog{
		fields: fields,
		byKey:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		c.byKey[f.Key] = i
	}
	return c
}

// Fields returns all catalog fields in declaration order.
func (c *Catalog) Fields() []Field { return c.fields }

// Lookup returns the field for a canonical key.
func (c *Catalog) Lookup(key string) (Field, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Field{}, false
	}
	return c.fields[i], true
}

// TypeOf returns the declared type for a key, or TypeGeneric for keys not in
// the catalog (including unknown_N placeholders).
func (c *Catalog) TypeOf(key string) FieldType {
	if f, ok := c.Lookup(key); ok {
		return f.Type
	}
	return TypeGeneric
}

// Position returns the declaration index of a key, or len(fields) for keys
// not in the catalog so they sort after canonical fields.
func (c *Catalog) Position(key string) int {
	if i, ok := c.byKey[key]; ok {
		return i
	}
	return len(c.fields)
}

// Default returns the built-in catalog of ID-document fields.
func Default() *Catalog {
	return New([]Field{
		{Key: "fullName", Type: TypeName, Aliases: []string{"name", "full name", "applicant name", "holder name", "candidate name"}},
		{Key: "firstName", Type: TypeName, Aliases: []string{"first name", "given name", "forename"}},
		{Key: "lastName", Type: TypeName, Aliases: []string{"last name", "surname", "family name"}},
		{Key: "fatherName", Type: TypeName, Aliases: []string{"father name", "fathers name", "name of father", "father"}},
		{Key: "motherName", Type: TypeName, Aliases: []string{"mother name", "mothers name", "name of mother", "mother"}},
		{Key: "guardianName", Type: TypeName, Aliases: []string{"guardian name", "name of guardian", "guardian"}},
		{Key: "spouseName", Type: TypeName, Aliases: []string{"spouse name", "husband name", "wife name", "name of spouse"}},
		{Key: "dateOfBirth", Type: TypeDate, Aliases: []string{"dob", "date of birth", "birth date", "birthdate", "born on"}},
		{Key: "dateOfIssue", Type: TypeDate, Aliases: []string{"date of issue", "issue date", "issued on"}},
		{Key: "dateOfExpiry", Type: TypeDate, Aliases: []string{"date of expiry", "expiry date", "valid until", "valid till", "expires on"}},
		{Key: "dateOfRegistration", Type: TypeDate, Aliases: []string{"date of registration", "registration date", "registered on"}},
		{Key: "placeOfBirth", Type: TypeAddress, Aliases: []string{"place of birth", "birth place", "birthplace", "born at"}},
		{Key: "placeOfIssue", Type: TypeAddress, Aliases: []string{"place of issue", "issued at", "issuing office"}},
		{Key: "gender", Type: TypeGender, Aliases: []string{"sex", "gender"}},
		{Key: "nationality", Type: TypeGeneric, Aliases: []string{"nationality", "citizen of", "citizenship"}},
		{Key: "religion", Type: TypeGeneric, Aliases: []string{"religion"}},
		{Key: "maritalStatus", Type: TypeGeneric, Aliases: []string{"marital status", "civil status"}},
		{Key: "bloodGroup", Type: TypeGeneric, Aliases: []string{"blood group", "blood type"}},
		{Key: "phone", Type: TypePhone, Aliases: []string{"phone", "mobile", "phone number", "mobile number", "contact", "contact number", "telephone", "tel"}},
		{Key: "altPhone", Type: TypePhone, Aliases: []string{"alternate phone", "alternate number", "emergency contact"}},
		{Key: "email", Type: TypeEmail, Aliases: []string{"email", "e-mail", "email id", "email address", "mail"}},
		{Key: "address", Type: TypeAddress, Aliases: []string{"address", "residence", "residential address", "present address", "location"}},
		{Key: "permanentAddress", Type: TypeAddress, Aliases: []string{"permanent address", "home address", "address of parents"}},
		{Key: "district", Type: TypeAddress, Aliases: []string{"district", "dist"}},
		{Key: "state", Type: TypeAddress, Aliases: []string{"state", "province"}},
		{Key: "city", Type: TypeAddress, Aliases: []string{"city", "town", "village"}},
		{Key: "pinCode", Type: TypeGeneric, Aliases: []string{"pin code", "pincode", "postal code", "zip code", "zip"}},
		{Key: "country", Type: TypeGeneric, Aliases: []string{"country"}},
		{Key: "idNumber", Type: TypeID, Aliases: []string{"id", "id number", "id no", "identification number", "card number", "document number"}},
		{Key: "aadhaarNumber", Type: TypeID, Aliases: []string{"aadhaar", "aadhaar number", "aadhar", "uid", "uid number"}},
		{Key: "panNumber", Type: TypeID, Aliases: []string{"pan", "pan number", "permanent account number"}},
		{Key: "passportNumber", Type: TypeID, Aliases: []string{"passport", "passport number", "passport no"}},
		{Key: "voterIDNumber", Type: TypeID, Aliases: []string{"voter id", "voter id number", "epic number", "elector id"}},
		{Key: "drivingLicenseNumber", Type: TypeID, Aliases: []string{"driving license", "driving licence", "license number", "licence number", "dl number"}},
		{Key: "registrationNumber", Type: TypeID, Aliases: []string{"registration number", "registration no", "reg no"}},
		{Key: "certificateNumber", Type: TypeID, Aliases: []string{"certificate number", "certificate no", "cert no"}},
		{Key: "occupation", Type: TypeGeneric, Aliases: []string{"occupation", "profession", "job", "position"}},
		{Key: "age", Type: TypeGeneric, Aliases: []string{"age", "age in years"}},
		{Key: "issuingAuthority", Type: TypeGeneric, Aliases: []string{"issuing authority", "issued by", "authority"}},
		{Key: "height", Type: TypeGeneric, Aliases: []string{"height"}},
	})
}
