package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adlens/internal/domain"
)

func obj(dn, name string, kind domain.ObjectKind) *domain.DirectoryObject {
	return &domain.DirectoryObject{DN: dn, Kind: kind, Name: name, SAMAccountName: name, Enabled: true}
}

func ancestorFixture() *domain.AncestorClosure {
	// root belongs to a and b; both belong to target.
	root := obj("cn=root", "root", domain.KindUser)
	return &domain.AncestorClosure{
		Root: root,
		Objects: map[string]*domain.DirectoryObject{
			"cn=root":   root,
			"cn=a":      obj("cn=a", "a", domain.KindGroup),
			"cn=b":      obj("cn=b", "b", domain.KindGroup),
			"cn=target": obj("cn=target", "target", domain.KindGroup),
		},
		Parents: map[string][]domain.MembershipEdge{
			"cn=a":      {{Child: "cn=root", Parent: "cn=a"}},
			"cn=b":      {{Child: "cn=root", Parent: "cn=b"}},
			"cn=target": {{Child: "cn=a", Parent: "cn=target"}, {Child: "cn=b", Parent: "cn=target"}},
		},
	}
}

func TestTree_MultiParentAppearsTwice(t *testing.T) {
	out := Tree(ancestorFixture())

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Equal(t, []string{
		"root",
		"    a",
		"        target",
		"    b",
		"        target",
	}, lines)
}

func TestTree_CycleIsCutPerPath(t *testing.T) {
	// p in g1, g1 in g2, g2 back in g1.
	p := obj("cn=p", "p", domain.KindUser)
	cl := &domain.AncestorClosure{
		Root: p,
		Objects: map[string]*domain.DirectoryObject{
			"cn=p":  p,
			"cn=g1": obj("cn=g1", "g1", domain.KindGroup),
			"cn=g2": obj("cn=g2", "g2", domain.KindGroup),
		},
		Parents: map[string][]domain.MembershipEdge{
			"cn=g1": {{Child: "cn=p", Parent: "cn=g1"}, {Child: "cn=g2", Parent: "cn=g1"}},
			"cn=g2": {{Child: "cn=g1", Parent: "cn=g2"}},
		},
	}

	out := Tree(cl)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, []string{"p", "    g1", "        g2"}, lines)
}

func TestTree_UnknownObjectFallsBackToDN(t *testing.T) {
	root := obj("cn=root", "root", domain.KindUser)
	cl := &domain.AncestorClosure{
		Root:    root,
		Objects: map[string]*domain.DirectoryObject{"cn=root": root},
		Parents: map[string][]domain.MembershipEdge{
			"cn=mystery": {{Child: "cn=root", Parent: "cn=mystery"}},
		},
	}

	out := Tree(cl)

	assert.Contains(t, out, "cn=mystery")
}

func descendantFixture() *domain.DescendantClosure {
	g1 := obj("cn=g1", "g1", domain.KindGroup)
	g2 := obj("cn=g2", "g2", domain.KindGroup)
	zed := obj("cn=zed", "zed", domain.KindUser)
	amy := obj("cn=amy", "amy", domain.KindUser)
	return &domain.DescendantClosure{
		Root: g1,
		Objects: map[string]*domain.DirectoryObject{
			"cn=g1": g1, "cn=g2": g2, "cn=zed": zed, "cn=amy": amy,
		},
		Members: []domain.Member{
			{Object: zed, Depth: 0, SourceGroup: "cn=g1", DaysSinceActivity: 3},
			{Object: g2, Depth: 0, SourceGroup: "cn=g1", Nested: true, DaysSinceActivity: -1},
			{Object: amy, Depth: 1, SourceGroup: "cn=g2", DaysSinceActivity: 10},
			{Object: zed, Depth: 1, SourceGroup: "cn=g2", DaysSinceActivity: 3},
		},
	}
}

func TestSummary_DedupsAndSorts(t *testing.T) {
	rows := Summary(descendantFixture())

	require.Len(t, rows, 3)
	assert.Equal(t, "amy", rows[0].Object.DisplayName())
	assert.Equal(t, "g2", rows[1].Object.DisplayName())
	assert.Equal(t, "zed", rows[2].Object.DisplayName())
	assert.Equal(t, 0, rows[2].Depth, "first discovered row wins")
}

func TestDetailed_ResolvesSourceGroupNames(t *testing.T) {
	rows := Detailed(descendantFixture())

	require.Len(t, rows, 4)
	assert.Equal(t, "g1", rows[0].SourceGroupName)
	assert.Equal(t, "g2", rows[2].SourceGroupName)
}

func TestDetailed_FallsBackToRawDN(t *testing.T) {
	cl := descendantFixture()
	cl.Members = append(cl.Members, domain.Member{
		Object:      obj("cn=orphan", "orphan", domain.KindUser),
		SourceGroup: "cn=not-in-object-map",
	})

	rows := Detailed(cl)

	assert.Equal(t, "cn=not-in-object-map", rows[len(rows)-1].SourceGroupName)
}

func TestWriteMembersCSV(t *testing.T) {
	var b strings.Builder
	require.NoError(t, WriteMembersCSV(&b, descendantFixture()))

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "name,sam_account_name,kind,dn,depth,source_group,enabled,inactive,days_since_activity", lines[0])
	assert.Equal(t, "zed,zed,user,cn=zed,0,g1,true,false,3", lines[1])
	assert.Equal(t, "g2,g2,group,cn=g2,0,g1,true,false,-1", lines[2])
}

func TestWriteGroupsCSV(t *testing.T) {
	var b strings.Builder
	require.NoError(t, WriteGroupsCSV(&b, ancestorFixture()))

	out := b.String()
	assert.Contains(t, out, "target,cn=target,a; b")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4, "header plus three groups")
}

func TestAncestorGroups_ExcludesRoot(t *testing.T) {
	groups := AncestorGroups(ancestorFixture())

	require.Len(t, groups, 3)
	for _, g := range groups {
		assert.NotEqual(t, "cn=root", g.DN)
	}
}
