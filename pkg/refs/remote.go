package refs

// RemoteRefState 描述本地同名书签是否应该跟随这个远端位置
type RemoteRefState int

const (
	// RemoteRefNew 远端书签未被跟踪 (例如 fetch 新发现的)
	RemoteRefNew RemoteRefState = iota
	// RemoteRefTracked 本地书签跟踪该远端书签
	RemoteRefTracked
)

func (s RemoteRefState) String() string {
	if s == RemoteRefTracked {
		return "tracked"
	}
	return "untracked"
}

// RemoteRef 是远端书签视图里的一个条目：目标 + 跟踪状态
type RemoteRef struct {
	Target RefTarget
	State  RemoteRefState
}

// AbsentRemoteRef 返回缺位的远端引用 (即零值)
func AbsentRemoteRef() RemoteRef {
	return RemoteRef{}
}

func (r RemoteRef) IsPresent() bool { return r.Target.IsPresent() }
func (r RemoteRef) IsAbsent() bool  { return r.Target.IsAbsent() }

func (r RemoteRef) IsTracked() bool { return r.State == RemoteRefTracked }

// TrackingTarget 返回本地合并时应当参考的目标：
// 只有被跟踪的远端书签才参与本地书签的三方合并
func (r RemoteRef) TrackingTarget() RefTarget {
	if r.IsTracked() {
		return r.Target
	}
	return AbsentTarget()
}

// Equal 深比较
func (r RemoteRef) Equal(other RemoteRef) bool {
	return r.State == other.State && r.Target.Equal(other.Target)
}

// MergeRemoteRefs 对远端引用做三方合并：目标用 MergeRefTargets，
// 跟踪状态取被修改的一侧 (两种状态之下，双方都改必然改成同一值)
func MergeRemoteRefs(base, side1, side2 RemoteRef) RemoteRef {
	if side1.Equal(base) || side1.Equal(side2) {
		return side2
	}
	if side2.Equal(base) {
		return side1
	}

	state := side2.State
	if side1.State != base.State {
		state = side1.State
	}
	return RemoteRef{
		Target: MergeRefTargets(base.Target, side1.Target, side2.Target),
		State:  state,
	}
}

// LocalAndRemoteRef 是同名书签在本地与某个远端的并置
// (外连接的产物：可能只在本地、只在远端、或两边都有)
// 它不判定跟踪关系，跟踪与否由 RemoteRef.State 表达
type LocalAndRemoteRef struct {
	LocalTarget RefTarget
	RemoteRef   RemoteRef
}

// IsLocalOnly / IsRemoteOnly 供上层展示同步状态
func (p LocalAndRemoteRef) IsLocalOnly() bool {
	return p.LocalTarget.IsPresent() && p.RemoteRef.IsAbsent()
}

func (p LocalAndRemoteRef) IsRemoteOnly() bool {
	return p.LocalTarget.IsAbsent() && p.RemoteRef.IsPresent()
}

// IsSynced 本地目标与被跟踪的远端目标一致
func (p LocalAndRemoteRef) IsSynced() bool {
	return p.RemoteRef.IsTracked() && p.LocalTarget.Equal(p.RemoteRef.Target)
}
