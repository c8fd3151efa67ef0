package mathutil

import "math"

// Quat represents a quaternion (x, y, z, w).
type Quat [4]float64

// QuatIdentity returns the identity rotation.
func QuatIdentity() Quat {
	return Quat{0, 0, 0, 1}
}

// QuatAxisAngle returns the rotation of rad radians around a unit axis.
func QuatAxisAngle(axis Vec3, rad float64) Quat {
	s, c := math.Sincos(rad * 0.5)
	return Quat{axis[0] * s, axis[1] * s, axis[2] * s, c}
}

// PitchYawRollToQuat converts pitch (X), yaw (Z) and roll (Y), all in
// degrees, to a quaternion. The rotation is applied roll first, then
// pitch, then yaw: Rz(yaw) ⋅ Rx(pitch) ⋅ Ry(roll).
func PitchYawRollToQuat(pitch, yaw, roll float64) Quat {
	qz := QuatAxisAngle(Vec3{0, 0, 1}, Deg2Rad(yaw))
	qx := QuatAxisAngle(Vec3{1, 0, 0}, Deg2Rad(pitch))
	qy := QuatAxisAngle(Vec3{0, 1, 0}, Deg2Rad(roll))
	return qz.Mul(qx).Mul(qy)
}

// Mul returns q ⋅ r.
func (q Quat) Mul(r Quat) Quat {
	return Quat{
		q[3]*r[0] + q[0]*r[3] + q[1]*r[2] - q[2]*r[1],
		q[3]*r[1] - q[0]*r[2] + q[1]*r[3] + q[2]*r[0],
		q[3]*r[2] + q[0]*r[1] - q[1]*r[0] + q[2]*r[3],
		q[3]*r[3] - q[0]*r[0] - q[1]*r[1] - q[2]*r[2],
	}
}

func (q Quat) Add(r Quat) Quat {
	return Quat{q[0] + r[0], q[1] + r[1], q[2] + r[2], q[3] + r[3]}
}

func (q Quat) Scale(s float64) Quat {
	return Quat{q[0] * s, q[1] * s, q[2] * s, q[3] * s}
}

func (q Quat) Dot(r Quat) float64 {
	return q[0]*r[0] + q[1]*r[1] + q[2]*r[2] + q[3]*r[3]
}

func (q Quat) Len() float64 {
	return math.Sqrt(q.Dot(q))
}

// Normalize returns q with unit length, or the identity if q is (near) zero.
func (q Quat) Normalize() Quat {
	l := q.Len()
	if l < 1e-12 {
		return QuatIdentity()
	}
	return q.Scale(1 / l)
}

// Canonical returns whichever of q and -q lies in the w >= 0 hemisphere.
// Ties on w are broken by the first non-zero vector component, so the
// result depends only on the rotation and not on how q was produced.
func (q Quat) Canonical() Quat {
	for _, i := range [4]int{3, 0, 1, 2} {
		switch {
		case q[i] > 0:
			return q
		case q[i] < 0:
			return q.Scale(-1)
		}
	}
	return q
}

// Rotate applies the rotation q (assumed unit length) to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q[0], q[1], q[2]}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q[3])).Add(u.Cross(t))
}

// Slerp spherically interpolates between a and b along the shortest arc.
func Slerp(a, b Quat, t float64) Quat {
	d := a.Dot(b)
	if d < 0 {
		b = b.Scale(-1)
		d = -d
	}
	// Nearly parallel: fall back to normalized lerp to avoid dividing by sin(0).
	if d > 0.9995 {
		return a.Add(b.Add(a.Scale(-1)).Scale(t)).Normalize()
	}
	theta := math.Acos(d)
	s := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / s
	wb := math.Sin(t*theta) / s
	return a.Scale(wa).Add(b.Scale(wb))
}

// ApproxEqual reports whether q and r describe the same rotation within eps.
func (q Quat) ApproxEqual(r Quat, eps float64) bool {
	return math.Abs(math.Abs(q.Dot(r))-1) <= eps
}

// QuatToMat3 converts a quaternion to a 3×3 rotation matrix.
func QuatToMat3(q Quat) Mat3 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	return Mat3{
		1 - 2*(yy+zz), 2 * (xy - wz), 2 * (xz + wy),
		2 * (xy + wz), 1 - 2*(xx+zz), 2 * (yz - wx),
		2 * (xz - wy), 2 * (yz + wx), 1 - 2*(xx+yy),
	}
}
