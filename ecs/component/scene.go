package component

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/carsim/assets"
)

// SceneNode is the visual group attached to a physics body. The part is drawn
// turned by RotationY about the body's up axis and shifted by Offset, both in
// body space.
type SceneNode struct {
	Name      string
	Part      *assets.Part
	RotationY float64
	Offset    mgl64.Vec3
	Edges     []assets.Edge
}

// Local returns the node-to-body transform.
func (n SceneNode) Local() mgl64.Mat4 {
	return mgl64.Translate3D(n.Offset.X(), n.Offset.Y(), n.Offset.Z()).Mul4(mgl64.HomogRotate3DY(n.RotationY))
}

// SetPart swaps the visual part and refreshes the cached edges.
func (n *SceneNode) SetPart(p *assets.Part) {
	n.Part = p
	n.Edges = nil
	if p != nil {
		n.Edges = p.Edges()
	}
}

var SceneNodeComponent = NewComponent[SceneNode]()
