package broken

type Widget struct {
	part Missing
}
