package billing

// ChargeCategory represents a billable charge category for an inpatient stay
type ChargeCategory string

const (
	CategoryBedCharges         ChargeCategory = "BED_CHARGES"         // Daily bed/ward charges, derived from the admission
	CategoryDoctorConsultation ChargeCategory = "DOCTOR_CONSULTATION" // Daily consultation fee, derived from the admission
	CategoryDoctorServices     ChargeCategory = "DOCTOR_SERVICES"     // Procedures and visits billed per service
	CategorySurgery            ChargeCategory = "SURGERY"
	CategoryPharmacy           ChargeCategory = "PHARMACY"
	CategoryLab                ChargeCategory = "LAB"
	CategoryRadiology          ChargeCategory = "RADIOLOGY"
	CategoryNursing            ChargeCategory = "NURSING"
	CategoryEquipment          ChargeCategory = "EQUIPMENT"
	CategoryConsumables        ChargeCategory = "CONSUMABLES"
	CategoryOther              ChargeCategory = "OTHER"
)

// AllCategories returns every charge category in canonical summary order
func AllCategories() []ChargeCategory {
	return []ChargeCategory{
		CategoryBedCharges,
		CategoryDoctorConsultation,
		CategoryDoctorServices,
		CategorySurgery,
		CategoryPharmacy,
		CategoryLab,
		CategoryRadiology,
		CategoryNursing,
		CategoryEquipment,
		CategoryConsumables,
		CategoryOther,
	}
}

// IsValid checks if the category is a known ChargeCategory
func (c ChargeCategory) IsValid() bool {
	switch c {
	case CategoryBedCharges, CategoryDoctorConsultation, CategoryDoctorServices,
		CategorySurgery, CategoryPharmacy, CategoryLab, CategoryRadiology,
		CategoryNursing, CategoryEquipment, CategoryConsumables, CategoryOther:
		return true
	}
	return false
}

// String returns the string representation of ChargeCategory
func (c ChargeCategory) String() string {
	return string(c)
}

// IsStayDerived returns true for categories whose subtotal is recomputed from
// admission scalars (rate x stay days) rather than summed from posted lines
func (c ChargeCategory) IsStayDerived() bool {
	return c == CategoryBedCharges || c == CategoryDoctorConsultation
}
