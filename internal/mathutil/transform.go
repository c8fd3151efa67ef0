package mathutil

// Mat3 is a 3×3 matrix stored row-major.
type Mat3 [9]float64

// Mat4 is a 4×4 matrix stored row-major.
type Mat4 [16]float64

// Transform is a rigid transform: rotation followed by translation.
type Transform struct {
	Pos Vec3
	Rot Quat
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{Rot: QuatIdentity()}
}

// Compose returns parent ∘ local, the transform that applies local and
// then parent.
func Compose(parent, local Transform) Transform {
	return Transform{
		Pos: parent.Pos.Add(parent.Rot.Rotate(local.Pos)),
		Rot: parent.Rot.Mul(local.Rot).Normalize(),
	}
}

// Apply transforms the point p.
func (t Transform) Apply(p Vec3) Vec3 {
	return t.Pos.Add(t.Rot.Rotate(p))
}

// Matrix returns t as a 4×4 affine matrix, for renderers that skin with
// matrices.
func (t Transform) Matrix() Mat4 {
	r := QuatToMat3(t.Rot)
	return Mat4{
		r[0], r[1], r[2], t.Pos[0],
		r[3], r[4], r[5], t.Pos[1],
		r[6], r[7], r[8], t.Pos[2],
		0, 0, 0, 1,
	}
}

// MulPoint transforms a 3D point (w=1) by the 4×4 matrix.
func (m Mat4) MulPoint(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11],
	}
}
