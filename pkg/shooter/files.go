package shooter

// Working-directory file names.
const (
	X1Restart           = "x1.rst"
	X2Restart           = "x2.rst"
	ForwardRestart      = "forward.rst"
	BackwardRestart     = "backward.rst"
	PostDTRestart       = "postdt.rst"
	PostForwardRestart  = "postforward.rst"
	PostBackwardRestart = "postbackward.rst"

	JobTemplate = "amber_job.tpl"
	OutDir      = "output"

	BackwardConstraints = "cons_back.dat"
	ForwardConstraints  = "cons_fwd.dat"
	DTConstraints       = "cons_dt.dat"

	BackwardInput = "inbackward.in"
	ForwardInput  = "inforward.in"
	DTInput       = "indt.in"
	StarterInput  = "instarter.in"

	BackwardOutput = "backward.out"
	ForwardOutput  = "forward.out"
	DTOutput       = "dt.out"
	StarterOutput  = "starter.out"

	BackwardTrajectory = "backward.mdcrd"
	ForwardTrajectory  = "forward.mdcrd"
	DTTrajectory       = "dt.mdcrd"
	StarterTrajectory  = "starter.mdcrd"
)

// GeneratedFiles are moved into the path's archive directory once the
// path is decided.
var GeneratedFiles = []string{
	BackwardOutput, ForwardOutput, DTOutput, StarterOutput,
	BackwardTrajectory, ForwardTrajectory, DTTrajectory, StarterTrajectory,
	BackwardConstraints, ForwardConstraints, DTConstraints,
}
