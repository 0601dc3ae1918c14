package classic

import (
	"gonum.org/v1/gonum/mat"

	"github.com/Aaronj1n/pendsim/controller"
)

// NoController applies no force at all. It serves as the free-response
// baseline against which the other controllers are compared.
type NoController struct{}

// NewNoController returns a controller that always outputs zero force
func NewNoController() NoController {
	return NoController{}
}

// Policy implements controller.Controller
func (NoController) Policy(state *mat.VecDense, t, dt float64,
	setpoint *mat.VecDense) (float64, controller.Data, error) {
	return 0, controller.Data{}, nil
}
