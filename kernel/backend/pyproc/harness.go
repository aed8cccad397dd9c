package pyproc

// pythonHarness wraps a cell for subprocess execution. It reads the source
// from stdin, evaluates a trailing expression statement separately so its
// value can be reported, captures open matplotlib figures, and emits
// sentinel marker lines the Go side parses back out of stdout.
const pythonHarness = `import ast
import base64
import io
import json
import sys
import traceback


def _emit(name, payload):
    sys.stdout.write("\n__%s__:%s\n" % (name, payload))
    sys.stdout.flush()


try:
    import matplotlib
    matplotlib.use("Agg")
    import matplotlib.pyplot as plt
except Exception:
    plt = None


def _emit_figures():
    if plt is None:
        return
    for num in plt.get_fignums():
        buf = io.BytesIO()
        plt.figure(num).savefig(buf, format="png")
        _emit("FIGURE", base64.b64encode(buf.getvalue()).decode("ascii"))
    plt.close("all")


def _main():
    source = sys.stdin.read()
    env = {"__name__": "__main__"}

    tree = ast.parse(source, mode="exec")
    last = None
    if tree.body and isinstance(tree.body[-1], ast.Expr):
        last = ast.Expression(tree.body.pop(-1).value)

    exec(compile(tree, "<cell>", "exec"), env)

    value = None
    if last is not None:
        value = eval(compile(last, "<cell>", "eval"), env)

    _emit_figures()

    if value is not None:
        try:
            payload = json.dumps(value)
        except (TypeError, ValueError):
            payload = json.dumps(repr(value))
        _emit("RESULT", payload)


if __name__ == "__main__":
    try:
        _main()
    except BaseException as exc:
        _emit("ERROR", json.dumps({
            "ename": type(exc).__name__,
            "evalue": str(exc),
            "traceback": traceback.format_exception(type(exc), exc, exc.__traceback__),
        }))
        sys.exit(1)
`
