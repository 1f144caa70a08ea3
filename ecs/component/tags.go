package component

type ChassisTag struct{}

var ChassisTagComponent = NewComponent[ChassisTag]()

type CameraTag struct{}

var CameraTagComponent = NewComponent[CameraTag]()
