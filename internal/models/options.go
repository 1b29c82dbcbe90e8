package models

// Option is one allowed value of an enumerated field
type Option struct {
	Value string
	Label string
}

// Option set names used by select inputs and validation
const (
	OptionGender            = "gender"
	OptionVoicePart         = "voice_part"
	OptionMarriageType      = "marriage_type"
	OptionMaritalStatus     = "marital_status"
	OptionCommitteePosition = "committee_position"
)

var optionSets = map[string][]Option{
	OptionGender: {
		{Value: "male", Label: "Male"},
		{Value: "female", Label: "Female"},
	},
	OptionVoicePart: {
		{Value: "soprano", Label: "Soprano"},
		{Value: "alto", Label: "Alto"},
		{Value: "tenor", Label: "Tenor"},
		{Value: "bass", Label: "Bass"},
	},
	OptionMarriageType: {
		{Value: "sacramental", Label: "Sacramental"},
		{Value: "customary", Label: "Customary"},
		{Value: "civil", Label: "Civil"},
		{Value: "convalidation", Label: "Convalidation"},
	},
	OptionMaritalStatus: {
		{Value: "single", Label: "Single"},
		{Value: "married", Label: "Married"},
		{Value: "widowed", Label: "Widowed"},
		{Value: "separated", Label: "Separated"},
		{Value: "divorced", Label: "Divorced"},
	},
	OptionCommitteePosition: {
		{Value: "chairperson", Label: "Chairperson"},
		{Value: "vice_chairperson", Label: "Vice chairperson"},
		{Value: "secretary", Label: "Secretary"},
		{Value: "assistant_secretary", Label: "Assistant secretary"},
		{Value: "treasurer", Label: "Treasurer"},
		{Value: "member", Label: "Member"},
	},
}

// Options returns the allowed values of the named option set
func Options(name string) []Option {
	return optionSets[name]
}

// OptionValues returns just the values of the named option set
func OptionValues(name string) []string {
	options := optionSets[name]
	values := make([]string, len(options))
	for i, o := range options {
		values[i] = o.Value
	}
	return values
}

// OptionLabel returns the label for value in the named set, or value itself
func OptionLabel(name, value string) string {
	for _, o := range optionSets[name] {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}
