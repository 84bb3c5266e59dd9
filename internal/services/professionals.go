package services

// ProfessionalDirectory is the fixed roster of bookable professionals.
type ProfessionalDirectory struct {
	list []Professional
	byID map[int]Professional
}

func NewProfessionalDirectory(list ...Professional) *ProfessionalDirectory {
	d := &ProfessionalDirectory{byID: map[int]Professional{}}
	for _, p := range list {
		p = p.Clone()
		d.list = append(d.list, p)
		d.byID[p.ID] = p
	}
	return d
}

// DefaultProfessionals returns the built-in roster.
func DefaultProfessionals() *ProfessionalDirectory {
	return NewProfessionalDirectory(
		Professional{
			ID:        1,
			Name:      "Dr. Sarah Wilson",
			Specialty: "Child Psychologist",
			Image:     "https://images.unsplash.com/photo-1559839734-2b71ea197ec2?ixlib=rb-1.2.1&auto=format&fit=crop&w=256&h=256&q=80",
			Timezone:  "EST",
			Unavailability: map[string][]string{
				"2025-02-20": {"10:00 AM", "2:00 PM"},
				"2025-02-21": {"11:00 AM", "3:00 PM"},
				"2025-02-22": {"9:00 AM", "1:00 PM"},
			},
		},
		Professional{
			ID:        2,
			Name:      "Dr. Michael Chen",
			Specialty: "Child & Adolescent Psychiatrist",
			Image:     "https://images.unsplash.com/photo-1612349317150-e413f6a5b16d?ixlib=rb-1.2.1&auto=format&fit=crop&w=256&h=256&q=80",
			Timezone:  "PST",
			Unavailability: map[string][]string{
				"2025-02-20": {"9:00 AM", "4:00 PM"},
				"2025-02-21": {"1:00 PM", "3:00 PM"},
				"2025-02-22": {"11:00 AM", "2:00 PM"},
			},
		},
		Professional{
			ID:        3,
			Name:      "Dr. Emily Rodriguez",
			Specialty: "Developmental Psychologist",
			Image:     "https://images.unsplash.com/photo-1614608682850-e0d6ed316d47?ixlib=rb-1.2.1&auto=format&fit=crop&w=256&h=256&q=80",
			Timezone:  "CST",
			Unavailability: map[string][]string{
				"2025-02-20": {"10:00 AM", "3:00 PM"},
				"2025-02-21": {"9:00 AM", "2:00 PM"},
				"2025-02-22": {"11:00 AM", "4:00 PM"},
			},
		},
	)
}

func (d *ProfessionalDirectory) List() []Professional {
	out := make([]Professional, len(d.list))
	for i, p := range d.list {
		out[i] = p.Clone()
	}
	return out
}

// Get returns a copy; changing it leaves the directory untouched.
func (d *ProfessionalDirectory) Get(id int) (Professional, bool) {
	p, ok := d.byID[id]
	if !ok {
		return Professional{}, false
	}
	return p.Clone(), true
}
