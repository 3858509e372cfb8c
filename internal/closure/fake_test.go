package closure

import (
	"context"
	"time"

	"adlens/internal/domain"
)

// fakeDirectory is an in-memory DirectoryRepository for engine tests. It
// counts lookups per node so tests can assert the expand-once guarantee, and
// can be told to fail specific lookups.
type fakeDirectory struct {
	objects  map[string]*domain.DirectoryObject
	aliases  map[string]string // sAMAccountName -> DN
	memberOf map[string][]string
	members  map[string][]domain.MemberRef

	failMemberships map[string]error
	failMembers     map[string]error
	failAttributes  map[string]error

	membershipCalls map[string]int
	memberCalls     map[string]int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		objects:         make(map[string]*domain.DirectoryObject),
		aliases:         make(map[string]string),
		memberOf:        make(map[string][]string),
		members:         make(map[string][]domain.MemberRef),
		failMemberships: make(map[string]error),
		failMembers:     make(map[string]error),
		failAttributes:  make(map[string]error),
		membershipCalls: make(map[string]int),
		memberCalls:     make(map[string]int),
	}
}

func (f *fakeDirectory) addObject(dn string, kind domain.ObjectKind, name string) *domain.DirectoryObject {
	obj := &domain.DirectoryObject{DN: dn, Kind: kind, Name: name, SAMAccountName: name, Enabled: true}
	f.objects[dn] = obj
	f.aliases[name] = dn
	return obj
}

func (f *fakeDirectory) addUser(dn, name string, lastActivity *time.Time) *domain.DirectoryObject {
	obj := f.addObject(dn, domain.KindUser, name)
	obj.LastActivity = lastActivity
	return obj
}

func (f *fakeDirectory) addGroup(dn, name string) *domain.DirectoryObject {
	return f.addObject(dn, domain.KindGroup, name)
}

func (f *fakeDirectory) addComputer(dn, name string, lastActivity *time.Time) *domain.DirectoryObject {
	obj := f.addObject(dn, domain.KindComputer, name)
	obj.LastActivity = lastActivity
	return obj
}

// link records child as a direct member of parent, in both directions.
func (f *fakeDirectory) link(childDN, parentDN string) {
	f.memberOf[childDN] = append(f.memberOf[childDN], parentDN)
	kind := domain.KindUnknown
	if obj, ok := f.objects[childDN]; ok {
		kind = obj.Kind
	}
	f.members[parentDN] = append(f.members[parentDN], domain.MemberRef{DN: childDN, Kind: kind})
}

func (f *fakeDirectory) ResolveObject(_ context.Context, identity string) (*domain.DirectoryObject, error) {
	if obj, ok := f.objects[identity]; ok {
		return obj, nil
	}
	if dn, ok := f.aliases[identity]; ok {
		return f.objects[dn], nil
	}
	return nil, domain.ErrNotFound("no directory object matches %q", identity)
}

func (f *fakeDirectory) GetMembershipsOf(_ context.Context, dn string) ([]string, error) {
	f.membershipCalls[dn]++
	if err, ok := f.failMemberships[dn]; ok {
		return nil, err
	}
	return f.memberOf[dn], nil
}

func (f *fakeDirectory) GetMembersOf(_ context.Context, groupDN string) ([]domain.MemberRef, error) {
	f.memberCalls[groupDN]++
	if err, ok := f.failMembers[groupDN]; ok {
		return nil, err
	}
	return f.members[groupDN], nil
}

func (f *fakeDirectory) GetAttributes(_ context.Context, dn string, _ domain.ObjectKind) (*domain.DirectoryObject, error) {
	if err, ok := f.failAttributes[dn]; ok {
		return nil, err
	}
	if obj, ok := f.objects[dn]; ok {
		return obj, nil
	}
	return nil, domain.ErrLookup("attributes of %q unavailable", dn)
}
