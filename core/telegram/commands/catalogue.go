package commands

// DocumentCommand requests the waste management guide.
const DocumentCommand = "wastemanagementpdf"

// DocumentCaption accompanies the uploaded guide.
const DocumentCaption = "Here is your Waste Management Guide."

var categoryDescriptions = []struct{ name, desc string }{
	{"housekeeping", "Housekeeping staff"},
	{"auto", "Auto rickshaw drivers"},
	{"milkman", "Milk delivery"},
	{"authorities", "Society authorities"},
	{"electrician", "Electricians"},
	{"plumber", "Plumbers"},
	{"services", "Other services"},
	{"shops", "Nearby shops"},
	{"paperboy", "Newspaper delivery"},
}

// Default returns the catalogue served to verified residents.
func Default() *Catalogue {
	c := NewCatalogue()
	c.Register(Command{Name: "start", Kind: KindStart, Description: "Check verification status"})
	c.Register(Command{Name: "help", Kind: KindHelp, Description: "List available commands"})
	for _, cat := range categoryDescriptions {
		c.Register(Command{Name: cat.name, Kind: KindCategory, Description: cat.desc})
	}
	c.Register(Command{
		Name:        DocumentCommand,
		Kind:        KindDocument,
		Description: "Waste management guide (PDF)",
		Note:        "(for the PDF guide)",
	})
	return c
}
