// Package vis computes spectrum and waveform data for the on-screen
// visualizers from blocks of rendered audio.
package vis

import "math"

// fft is an in-place radix-2 complex FFT (after Paul Bourke's fft_ms).
// len(x) must be a power of two. dir 1 is the forward transform, scaled by
// 1/n; dir -1 is the inverse.
func fft(x []complex128, dir int) {
	n := len(x)
	m := 0
	for 1<<m < n {
		m++
	}

	// Bit reversal.
	j := 0
	for i := 0; i < n-1; i++ {
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
		k := n >> 1
		for k <= j {
			j -= k
			k >>= 1
		}
		j += k
	}

	// Danielson-Lanczos butterflies.
	c := complex(-1, 0)
	l2 := 1
	for l := 0; l < m; l++ {
		l1 := l2
		l2 <<= 1
		u := complex(1, 0)
		for j := 0; j < l1; j++ {
			for i := j; i < n; i += l2 {
				i1 := i + l1
				t := u * x[i1]
				x[i1] = x[i] - t
				x[i] += t
			}
			u *= c
		}
		ci := math.Sqrt((1 - real(c)) / 2)
		if dir == 1 {
			ci = -ci
		}
		c = complex(math.Sqrt((1+real(c))/2), ci)
	}

	if dir == 1 {
		scale := complex(1/float64(n), 0)
		for i := range x {
			x[i] *= scale
		}
	}
}
