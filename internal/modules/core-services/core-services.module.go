package core_services

import (
	"go.uber.org/fx"

	"clinica-suite-core/internal/modules/core-services/patient"
)

// Module regroupe les domaines métier centralisés
var Module = fx.Options(
	// Patient : inscription, recherche, codes patient
	patient.Module,
)
