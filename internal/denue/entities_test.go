package denue

import "testing"

func TestToEstablishment_Coalescing(t *testing.T) {
	rec := denueRecord{
		CLEE:           "clee-1",
		RazonSocial:    "COMERCIALIZADORA SA DE CV",
		NombreAct:      "Comercio al por menor",
		ClaseID:        "462112",
		Calle:          "CALLE 60",
		NumExterior:    "491",
		Colonia:        "CENTRO",
		CP:             "97000",
		Latitud:        "20.967370",
		Longitud:       "-89.592586",
	}
	est := rec.toEstablishment()

	if est.ID != "clee-1" {
		t.Errorf("ID fallback to CLEE: %q", est.ID)
	}
	if est.Name != "COMERCIALIZADORA SA DE CV" {
		t.Errorf("Name fallback to razón social: %q", est.Name)
	}
	if est.ActivityDescription != "Comercio al por menor" {
		t.Errorf("activity = %q", est.ActivityDescription)
	}
	if est.ActivityCode != "462112" {
		t.Errorf("activity code = %q", est.ActivityCode)
	}
	if est.Address != "CALLE 60 491, CENTRO, CP 97000" {
		t.Errorf("address = %q", est.Address)
	}
	if !est.HasCoordinates() || *est.Latitude != 20.967370 {
		t.Errorf("coordinates lost: %+v", est)
	}
}

func TestToEstablishment_NoName(t *testing.T) {
	est := denueRecord{ID: "x"}.toEstablishment()
	if est.Name != "Sin nombre" {
		t.Errorf("Name = %q", est.Name)
	}
}

func TestToEstablishment_AbsentCoordinates(t *testing.T) {
	for _, raw := range []string{"", "   ", "no disponible"} {
		est := denueRecord{ID: "x", Latitud: raw, Longitud: raw}.toEstablishment()
		if est.Latitude != nil || est.Longitude != nil {
			t.Errorf("coordinate %q coerced to %v,%v", raw, est.Latitude, est.Longitude)
		}
		if est.HasCoordinates() {
			t.Errorf("coordinate %q reported as present", raw)
		}
	}
}

func TestToEstablishment_UbicacionFallback(t *testing.T) {
	est := denueRecord{ID: "x", Ubicacion: "MERCADO LUCAS DE GALVEZ LOCAL 5"}.toEstablishment()
	if est.Address != "MERCADO LUCAS DE GALVEZ LOCAL 5" {
		t.Errorf("address = %q", est.Address)
	}
}
