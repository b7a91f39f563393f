// Copyright 2025 Open3FS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package candidate_test

import (
	"errors"
	"fmt"

	"pgregory.net/rapid"

	"github.com/open3fs/m3disk/pkg/candidate"
	"github.com/open3fs/m3disk/pkg/common"
	"github.com/open3fs/m3disk/pkg/device"
)

var errNoMountinfo = errors.New("no mountinfo")

func (s *engineSuite) disks(bus string, sizes ...uint64) []*device.Device {
	devs := make([]*device.Device, 0, len(sizes))
	for _, size := range sizes {
		name := fmt.Sprintf("sd%c", 'a'+s.r.Len())
		if bus == "nvme" {
			name = fmt.Sprintf("nvme%dn1", s.r.Len())
		}
		devs = append(devs, s.add(s.fx.Disk(name, bus).Size(size).Build()))
	}
	return devs
}

func (s *engineSuite) TestSizeSkew() {
	cases := []struct {
		sizes []uint64
		ok    bool
	}{
		{[]uint64{100 * common.GB, 100 * common.GB, 102 * common.GB}, false},
		{[]uint64{100 * common.GB, 100 * common.GB, 100*common.GB + 500*common.MB}, true},
		{[]uint64{100 * common.GB, 101 * common.GB}, true},
		{[]uint64{100 * common.GB, 101*common.GB + 100*common.MB}, false},
		{[]uint64{8 * common.TB, 8 * common.TB}, true},
	}
	for _, c := range cases {
		s.SetupTest()
		err := s.e.CheckCandidates(s.disks("ata", c.sizes...), true)
		if c.ok {
			s.NoError(err, c.sizes)
		} else {
			s.True(candidate.IsRaidIncompatible(err), "%v: %v", c.sizes, err)
		}
	}
}

func (s *engineSuite) TestRaidNotRequested() {
	devs := s.disks("ata", 10*common.GB, 100*common.GB)
	s.NoError(s.e.CheckCandidates(devs, false))
	s.Error(s.e.CheckCandidates(devs, true))
	s.NoError(s.e.CheckCandidates(devs[:1], true))
}

func (s *engineSuite) TestRotationalMix() {
	hdd := s.add(s.fx.Disk("sda", "ata").Rotational().Build())
	ssd := s.add(s.fx.Disk("sdb", "ata").Build())

	err := s.e.CheckCandidates([]*device.Device{hdd, ssd}, true)
	s.True(candidate.IsRaidIncompatible(err))
	var re *candidate.RaidIncompatibleError
	s.ErrorAs(err, &re)
	s.Contains(re.Reason, "rotational")
	s.Equal([]*device.Device{hdd, ssd}, re.Devices)
}

func (s *engineSuite) TestIndividualFailureComesFirst() {
	sda := s.add(s.fx.Disk("sda", "ata").Build())
	sdb := s.add(s.fx.Disk("sdb", "usb").ReadOnly().Build())

	err := s.e.CheckCandidates([]*device.Device{sda, sdb}, true)
	s.True(candidate.IsEligibilityError(err, candidate.ReadOnly))
	s.False(candidate.IsRaidIncompatible(err))
}

func (s *engineSuite) TestBusMismatchSymmetric() {
	rapid.Check(s.T(), func(t *rapid.T) {
		s.SetupTest()
		buses := rapid.SliceOfNDistinct(rapid.SampledFrom([]string{"ata", "scsi", "usb", "nvme", "sas"}),
			2, 2, rapid.ID[string]).Draw(t, "buses")
		var devs []*device.Device
		for i, bus := range buses {
			b := s.fx.Disk(fmt.Sprintf("sd%c", 'a'+i), bus).
				Size(rapid.Uint64Range(common.GB, 4*common.TB).Draw(t, "size"))
			if rapid.Bool().Draw(t, "rotational") {
				b.Rotational()
			}
			dev, _ := s.r.Add(b.Build())
			devs = append(devs, dev)
		}

		forward := s.e.CheckCandidates([]*device.Device{devs[0], devs[1]}, true)
		backward := s.e.CheckCandidates([]*device.Device{devs[1], devs[0]}, true)
		if !candidate.IsRaidIncompatible(forward) || !candidate.IsRaidIncompatible(backward) {
			t.Fatalf("buses %v: got %v and %v", buses, forward, backward)
		}
	})
}

func (s *engineSuite) TestSkewRuleProperty() {
	rapid.Check(s.T(), func(t *rapid.T) {
		s.SetupTest()
		sizes := rapid.SliceOfN(rapid.Uint64Range(common.GB, 16*common.TB), 2, 4).Draw(t, "sizes")
		minSize, maxSize := sizes[0], sizes[0]
		for _, size := range sizes {
			minSize, maxSize = min(minSize, size), max(maxSize, size)
		}
		// sysfs reports whole sectors
		minSize = minSize / common.SectorSize * common.SectorSize
		maxSize = maxSize / common.SectorSize * common.SectorSize
		want := (maxSize-minSize)*100 <= maxSize

		err := s.e.CheckCandidates(s.disks("ata", sizes...), true)
		if want != (err == nil) {
			t.Fatalf("sizes %v: want ok=%v, got %v", sizes, want, err)
		}
	})
}

func (s *engineSuite) TestSelectSingle() {
	devs := s.disks("ata", 100*common.GB)
	s.Equal(devs, s.e.SelectCandidates(devs))
}

func (s *engineSuite) TestSelectRaidPair() {
	devs := s.disks("ata", 100*common.GB, 100*common.GB)
	s.Equal(devs, s.e.SelectCandidates(devs))
}

func (s *engineSuite) TestSelectAcrossBuses() {
	devs := append(s.disks("ata", 100*common.GB), s.disks("nvme", 100*common.GB)...)
	for _, dev := range devs {
		s.NoError(s.e.CheckCandidate(dev))
	}
	s.Empty(s.e.SelectCandidates(devs))
}

func (s *engineSuite) TestSelectIncompatibleSizes() {
	devs := s.disks("ata", 100*common.GB, 200*common.GB)
	s.Empty(s.e.SelectCandidates(devs))
}

func (s *engineSuite) TestSelectFiltersInvalid() {
	devs := s.disks("ata", 100*common.GB, 100*common.GB)
	bad := s.add(s.fx.Disk("sdz", "ata").ReadOnly().Build())

	s.Equal(devs, s.e.SelectCandidates(append(devs, bad)))
	s.Equal(devs[:1], s.e.SelectCandidates([]*device.Device{bad, devs[0]}))
}

func (s *engineSuite) TestSelectFallsToLowerPriority() {
	vda := s.add(s.fx.Virtio("vda").ReadOnly().Build())
	sda := s.disks("ata", 100*common.GB)[0]
	unknown := s.add(s.fx.Disk("sdy", "").Build())

	s.Equal([]*device.Device{sda}, s.e.SelectCandidates([]*device.Device{unknown, vda, sda}))
}

func (s *engineSuite) TestSelectNothing() {
	unknown := s.add(s.fx.Disk("sdy", "").Build())
	small := s.add(s.fx.Disk("sdx", "ata").Size(4 * common.KiB).Build())

	s.Empty(s.e.SelectCandidates(nil))
	s.Empty(s.e.SelectCandidates([]*device.Device{unknown}))
	s.Empty(s.e.SelectCandidates([]*device.Device{small}))
}

func (s *engineSuite) TestSelectPrefersHighPriority() {
	sda := s.disks("ata", 100*common.GB)[0]
	vda := s.add(s.fx.Virtio("vda").Build())

	s.Equal([]*device.Device{vda}, s.e.SelectCandidates([]*device.Device{sda, vda}))
}

func (s *engineSuite) TestSelectSkipsDisabled() {
	sr0 := s.add(s.fx.Cdrom("sr0").Size(4 * common.GB).Build())
	s.Equal(device.PriorityDisable, sr0.Priority())
	s.Equal("ata", sr0.Bus())

	s.Empty(s.e.SelectCandidates(s.r.LeafDevices()))

	sda := s.disks("ata", 100*common.GB)[0]
	s.Equal([]*device.Device{sda}, s.e.SelectCandidates([]*device.Device{sr0, sda}))
}
