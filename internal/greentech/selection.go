package greentech

// Selection tracks the discount choice together with its installation
// prerequisite. Deduction tiers are only selectable while installation is on;
// switching installation off force-clears the tier, mirroring the storefront
// behaviour where the deduction options disappear with the installation
// checkbox.
type Selection struct {
	installation bool
	code         Code
}

// SetInstallation toggles the prerequisite. Turning it off clears any selected
// tier and reports whether a tier was cleared.
func (s *Selection) SetInstallation(on bool) (cleared bool) {
	s.installation = on
	if !on && s.code != CodeNone {
		s.code = CodeNone
		return true
	}
	return false
}

// Select chooses a tier. Selecting a tier without the installation
// prerequisite is refused; selecting CodeNone always succeeds and disables the
// deduction.
func (s *Selection) Select(code Code) bool {
	if !code.Valid() {
		return false
	}
	if code == CodeNone {
		s.code = CodeNone
		return true
	}
	if !s.installation {
		return false
	}
	s.code = code
	return true
}

// Code returns the active tier.
func (s *Selection) Code() Code { return s.code }

// Enabled reports whether a deduction tier is active.
func (s *Selection) Enabled() bool { return s.code != CodeNone }

// Installation reports the prerequisite state.
func (s *Selection) Installation() bool { return s.installation }
