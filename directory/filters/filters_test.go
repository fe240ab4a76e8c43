package filters

import "testing"

func TestFilterStrings(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{"eq", Eq("cn", "jdoe"), "(cn=jdoe)"},
		{"present", Present("mail"), "(mail=*)"},
		{"ge", Ge("uSNChanged", 1000), "(uSNChanged>=1000)"},
		{"not", Not(Eq("cn", "jdoe")), "(!(cn=jdoe))"},
		{
			"and",
			And(Eq("objectCategory", "person"), Eq("objectClass", "user")),
			"(&(objectCategory=person)(objectClass=user))",
		},
		{
			"or of and",
			Or(And(Eq("a", "1"), Eq("b", "2")), Present("c")),
			"(|(&(a=1)(b=2))(c=*))",
		},
		{"raw", Raw("(objectClass=computer)"), "(objectClass=computer)"},
	}

	for _, test := range tests {
		if got := test.filter.String(); got != test.want {
			t.Errorf("%s: got %q, want %q", test.name, got, test.want)
		}
	}
}

func TestPresetsMatchBuilder(t *testing.T) {
	if got := And(Eq("objectCategory", "person"), Eq("objectClass", "user")).String(); got != AllUsers {
		t.Errorf("AllUsers preset drifted: %q vs %q", got, AllUsers)
	}
	if got := Present("objectClass").String(); got != AllObjects {
		t.Errorf("AllObjects preset drifted: %q vs %q", got, AllObjects)
	}
}
