package cars

type CarForm struct {
	Brand        string `form:"brand" validate:"max=50"`
	Model        string `form:"model" validate:"max=50"`
	Variant      string `form:"variant" validate:"max=50"`
	Fuel         string `form:"fuel" validate:"max=50"`
	Transmission string `form:"transmission" validate:"max=50"`
	PlateNo      string `form:"plate_no" validate:"max=15"`
	BranchID     int64  `form:"branch" validate:"gt=0"`
}
