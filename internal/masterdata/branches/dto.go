package branches

type BranchForm struct {
	Code        string `form:"code" validate:"required,max=10"`
	Description string `form:"description" validate:"max=50"`
}
