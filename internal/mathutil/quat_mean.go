package mathutil

import "math"

// QuatMoment accumulates the weighted outer products w·q·qᵀ of unit
// quaternions. Since q and -q give the same product the sum does not
// depend on the sign of any input, and Mean recovers the weighted average
// rotation even when inputs straddle 180°.
type QuatMoment [4][4]float64

// Add folds q with weight w into m.
func (m *QuatMoment) Add(q Quat, w float64) {
	for i := 0; i < 4; i++ {
		for j := i; j < 4; j++ {
			m[i][j] += w * q[i] * q[j]
		}
	}
}

// Mean returns the principal eigenvector of m in canonical form, the
// quaternion maximizing the weighted sum of squared dot products with the
// inputs. An empty moment yields the identity.
func (m *QuatMoment) Mean() Quat {
	var a [4][4]float64
	norm := 0.0
	for i := 0; i < 4; i++ {
		for j := i; j < 4; j++ {
			a[i][j], a[j][i] = m[i][j], m[i][j]
			norm += m[i][j] * m[i][j]
		}
	}
	if a[0][0]+a[1][1]+a[2][2]+a[3][3] < 1e-12 {
		return QuatIdentity()
	}

	v := [4][4]float64{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}
	for sweep := 0; sweep < 32; sweep++ {
		off := 0.0
		for p := 0; p < 3; p++ {
			for q := p + 1; q < 4; q++ {
				off += a[p][q] * a[p][q]
			}
		}
		if off <= 1e-32*norm {
			break
		}
		for p := 0; p < 3; p++ {
			for q := p + 1; q < 4; q++ {
				if a[p][q] == 0 {
					continue
				}
				jacobiRotate(&a, &v, p, q)
			}
		}
	}

	best := 3
	for _, i := range [3]int{0, 1, 2} {
		if a[i][i] > a[best][best] {
			best = i
		}
	}
	r := Quat{v[0][best], v[1][best], v[2][best], v[3][best]}
	return r.Normalize().Canonical()
}

// jacobiRotate zeroes a[p][q] with a plane rotation applied to a on both
// sides and accumulated into v.
func jacobiRotate(a, v *[4][4]float64, p, q int) {
	theta := (a[q][q] - a[p][p]) / (2 * a[p][q])
	t := 1 / (math.Abs(theta) + math.Sqrt(theta*theta+1))
	if theta < 0 {
		t = -t
	}
	c := 1 / math.Sqrt(t*t+1)
	s := t * c
	for k := 0; k < 4; k++ {
		kp, kq := a[k][p], a[k][q]
		a[k][p], a[k][q] = c*kp-s*kq, s*kp+c*kq
	}
	for k := 0; k < 4; k++ {
		pk, qk := a[p][k], a[q][k]
		a[p][k], a[q][k] = c*pk-s*qk, s*pk+c*qk
	}
	for k := 0; k < 4; k++ {
		kp, kq := v[k][p], v[k][q]
		v[k][p], v[k][q] = c*kp-s*kq, s*kp+c*kq
	}
}
