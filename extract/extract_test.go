package extract

import "testing"

func TestExtractYear(t *testing.T) {
	tests := []struct {
		text string
		want int
		none bool
	}{
		{text: "Toyota Corolla 2015 XEI", want: 2015},
		{text: "Mazda 3 Touring 2.0 2018", want: 2018},
		{text: "Renault Logan", none: true},
		{text: "Motor 1600cc full equipo", none: true},
		{text: "Chevrolet Spark 1890 edición 2012", want: 2012},
		{text: "", none: true},
	}

	for _, tt := range tests {
		got := ExtractYear(tt.text)
		if tt.none {
			if got != nil {
				t.Errorf("ExtractYear(%q) = %d; want absent", tt.text, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("ExtractYear(%q) = %v; want %d", tt.text, got, tt.want)
		}
	}
}

func TestExtractMileage(t *testing.T) {
	tests := []struct {
		text string
		want int
		none bool
	}{
		{text: "100000 km", want: 100000},
		{text: "100.000 km", want: 100000},
		{text: "100,000 km", want: 100000},
		{text: "166.788 km", want: 166788},
		{text: "45.000 Kilómetros", want: 45000},
		{text: "12000 kilometros único dueño", want: 12000},
		{text: "automático 4x4", none: true},
		{text: "", none: true},
	}

	for _, tt := range tests {
		got := ExtractMileage(tt.text)
		if tt.none {
			if got != nil {
				t.Errorf("ExtractMileage(%q) = %d; want absent", tt.text, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("ExtractMileage(%q) = %v; want %d", tt.text, got, tt.want)
		}
	}
}

func TestExtractCity(t *testing.T) {
	cities := []string{"Bogotá", "Medellín", "Cali"}

	tests := []struct {
		text string
		want string
	}{
		{text: "Envigado, Medellín", want: "Medellín"},
		{text: "cali - valle del cauca", want: "Cali"},
		{text: "Barrio Chapinero, bogotá", want: "Bogotá"},
		{text: "Sincelejo", want: "Medellín"},
		{text: "", want: "Medellín"},
	}

	for _, tt := range tests {
		if got := ExtractCity(tt.text, cities, "Medellín"); got != tt.want {
			t.Errorf("ExtractCity(%q) = %q; want %q", tt.text, got, tt.want)
		}
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		text string
		want float64
		none bool
	}{
		{text: "35.000.000", want: 35000000},
		{text: "35,000,000", want: 35000000},
		{text: "$ 28.500.000", want: 28500000},
		{text: "92000000", want: 92000000},
		{text: "COP 15.900.000", want: 15900000},
		{text: "Consultar", none: true},
		{text: "", none: true},
	}

	for _, tt := range tests {
		got := ParsePrice(tt.text)
		if tt.none {
			if got != nil {
				t.Errorf("ParsePrice(%q) = %.0f; want absent", tt.text, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("ParsePrice(%q) = %v; want %.0f", tt.text, got, tt.want)
		}
	}
}
